package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/market-orders/internal/domain/user"
)

const (
	getUserSQL = `SELECT id, email, address, point, cart FROM users WHERE id = $1`

	saveUserSQL = `UPDATE users SET address = $2, point = $3, cart = $4 WHERE id = $1`

	upsertUserSQL = `INSERT INTO users (id, email, address, point, cart)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE
	SET email = EXCLUDED.email, address = EXCLUDED.address, point = EXCLUDED.point, cart = EXCLUDED.cart`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// FindByID returns the user with the given id, or user.ErrNotFound.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, getUserSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get user %s", id)
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get user %s", id)
	}
	return &u, nil
}

// Save writes the address, point balance and cart of u.
func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, saveUserSQL,
		u.ID, addressDocument(u.Address), u.Point, document(u.Cart.Encode),
	)
	if err != nil {
		return errors.Wrapf(err, "save user %s", u.ID)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// Upsert creates u or replaces every column of an existing row.
func (r *UserRepository) Upsert(ctx context.Context, u *user.User) error {
	_, err := conn(ctx, r.pool).Exec(ctx, upsertUserSQL,
		u.ID, u.Email, addressDocument(u.Address), u.Point, document(u.Cart.Encode),
	)
	if err != nil {
		return errors.Wrapf(err, "upsert user %s", u.ID)
	}
	return nil
}

func addressDocument(a *user.Address) []byte {
	if a == nil {
		return nil
	}
	return document(a.Encode)
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var (
		u       user.User
		address []byte
		point   decimal.Decimal
		cart    []byte
	)
	if err := row.Scan(&u.ID, &u.Email, &address, &point, &cart); err != nil {
		return u, err
	}
	u.Point = point

	if address != nil {
		var a user.Address
		if err := a.Decode(jx.DecodeBytes(address)); err != nil {
			return u, errors.Wrap(err, "decode address")
		}
		u.Address = &a
	}
	if err := u.Cart.Decode(jx.DecodeBytes(cart)); err != nil {
		return u, errors.Wrap(err, "decode cart")
	}
	return u, nil
}
