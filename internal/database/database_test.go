package database

import (
	"database/sql"
	"os"
	"testing"

	"pulse/internal/models"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestModelsMigrationOrder(t *testing.T) {
	t.Parallel()

	ms := Models()
	require.Len(t, ms, 5)

	// Referenced tables migrate before the tables referencing them.
	assert.IsType(t, &models.User{}, ms[0])
	assert.IsType(t, &models.Identity{}, ms[1])
	assert.IsType(t, &models.Post{}, ms[2])
	assert.IsType(t, &models.Comment{}, ms[3])
	assert.IsType(t, &models.Like{}, ms[4])
}

func TestSlogGormLoggerLogMode(t *testing.T) {
	t.Parallel()

	base := &SlogGormLogger{Config: logger.Config{LogLevel: logger.Warn}}
	quiet := base.LogMode(logger.Silent)

	// LogMode returns a copy; the original keeps its level.
	assert.Equal(t, logger.Warn, base.Config.LogLevel)
	assert.Equal(t, logger.Silent, quiet.(*SlogGormLogger).Config.LogLevel)
}

// TestPostgresConnectivity is an opt-in integration check against a real
// Postgres, for CI jobs that provision one.
func TestPostgresConnectivity(t *testing.T) {
	dsn := os.Getenv("PULSE_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("PULSE_TEST_DATABASE_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, db.Ping())
}
