package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tzlun5274/mes-system/internal/config"
)

type probe struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestNew_SQLiteInMemory(t *testing.T) {
	db, err := New(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"}, nil)
	require.NoError(t, err)
	defer func() { assert.NoError(t, Close(db)) }()

	require.NoError(t, Migrate(db, &probe{}))
	require.NoError(t, db.Create(&probe{Name: "SMT-01"}).Error)

	var count int64
	require.NoError(t, db.Model(&probe{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.NoError(t, HealthCheck(db))
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil, nil)
	assert.EqualError(t, err, "database config cannot be nil")

	_, err = New(&config.DatabaseConfig{Driver: "oracle"}, nil)
	assert.EqualError(t, err, "unsupported database driver: oracle")
}

func TestNilDatabase(t *testing.T) {
	assert.NoError(t, Close(nil))
	assert.EqualError(t, HealthCheck(nil), "database is nil")
	assert.EqualError(t, Migrate(nil), "database is nil")
}
