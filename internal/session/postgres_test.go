package session

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/floret-storefront/pkg/config"
	"github.com/angelmondragon/floret-storefront/pkg/db"
	"github.com/angelmondragon/floret-storefront/pkg/migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestDurableTierAgainstPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in -short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("floret"),
		postgres.WithUsername("floret"),
		postgres.WithPassword("floret"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	client, err := db.New(ctx, config.DBConfig{DSN: dsn, MaxOpenConns: 2, MaxIdleConns: 1}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.SQL()
	require.NoError(t, err)
	require.NoError(t, migrate.Run(ctx, sqlDB, "up"))

	tier, err := NewDurableTier(client)
	require.NoError(t, err)

	rec := Record{UserID: "u-1", Email: "alice@example.com", Name: "Alice", SessionID: "s1", LastUpdated: time.Now().UTC()}
	require.NoError(t, tier.Save(ctx, "digest", rec, time.Now().Add(time.Hour)))
	rec.SessionID = "s2"
	require.NoError(t, tier.Save(ctx, "digest", rec, time.Now().Add(time.Hour)))

	got, err := tier.Load(ctx, "digest")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "s2", got.SessionID)

	require.NoError(t, tier.Delete(ctx, "digest"))
	got, err = tier.Load(ctx, "digest")
	require.NoError(t, err)
	assert.Nil(t, got)
}
