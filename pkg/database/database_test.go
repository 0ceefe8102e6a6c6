package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   int64 `gorm:"primaryKey"`
	Name string
}

func TestInitDB_SQLite(t *testing.T) {
	db, err := InitDB(Options{Driver: "sqlite", DSN: ":memory:"}, &widget{})
	require.NoError(t, err)

	require.NoError(t, db.Create(&widget{Name: "a"}).Error)
	var n int64
	require.NoError(t, db.Model(&widget{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	require.NoError(t, sqlDB.Close())
}

func TestInitDB_UnknownDriver(t *testing.T) {
	_, err := InitDB(Options{Driver: "oracle"})
	assert.Error(t, err)
}
