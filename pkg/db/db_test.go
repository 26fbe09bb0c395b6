package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personnel_accounting/configs"
	"github.com/personnel_accounting/internal/models"
)

func TestOpen_SQLiteFileAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "obrig.db")
	conn, err := Open(configs.DatabaseOptions{Type: "sqlite", SQLitePath: path}, nil)
	require.NoError(t, err)
	require.NoError(t, Migrate(conn))

	for _, table := range []any{&models.ServiceMember{}, &models.PositionHistory{}, &models.AuditLog{}, &models.OrderAction{}} {
		assert.True(t, conn.Migrator().HasTable(table))
	}

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	require.NoError(t, sqlDB.Close())
}

func TestOpen_UnsupportedType(t *testing.T) {
	_, err := Open(configs.DatabaseOptions{Type: "oracle"}, nil)
	assert.Error(t, err)
}
