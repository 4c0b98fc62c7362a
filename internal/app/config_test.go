package app

import (
	"testing"

	"github.com/cristalhq/aconfig"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envOnly = aconfig.Config{EnvPrefix: "MARKET", SkipFiles: true, SkipFlags: true}

func TestLoadConfig(t *testing.T) {
	t.Setenv("MARKET_DATABASE_URL", "postgres://localhost/market")
	t.Setenv("MARKET_JWT_SECRET", "s3cret")
	t.Setenv("PORT", "")

	cfg, err := loadConfig(envOnly)
	require.NoError(t, err)
	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.Equal(t, "market", cfg.JWT.Issuer)
	assert.Equal(t, "orders.events", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.InDelta(t, 20, cfg.RateLimit.RPS, 0)
}

func TestLoadConfig_PlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/market")
	t.Setenv("PORT", "9000")
	t.Setenv("MARKET_JWT_SECRET", "s3cret")

	cfg, err := loadConfig(envOnly)
	require.NoError(t, err)
	assert.Equal(t, "postgres://platform/market", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
}

func TestConfigValidate(t *testing.T) {
	for _, tt := range []struct {
		name string
		cfg  Config
		want string
	}{
		{"NoDatabase", Config{JWT: JWTConfig{Secret: "x"}}, "database URL"},
		{"NoSecret", Config{DatabaseURL: "postgres://"}, "JWT secret"},
		{"KafkaNoTopic", Config{
			DatabaseURL: "postgres://",
			JWT:         JWTConfig{Secret: "x"},
			Kafka:       KafkaConfig{Brokers: []string{"k:9092"}},
		}, "kafka topic"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorContains(t, tt.cfg.validate(), tt.want)
		})
	}
}
