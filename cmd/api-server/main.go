// Command api-server serves the order API.
package main

import (
	"context"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	market "github.com/xenking/market-orders/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := market.LoadConfig()
		if err != nil {
			return err
		}
		return market.Run(ctx, lg, m, cfg)
	})
}
