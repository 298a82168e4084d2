package database

import (
	"path/filepath"
	"testing"

	"wallet/config"
	"wallet/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(&config.Config{Database: config.DatabaseConfig{Driver: "oracle"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestInit_SQLite(t *testing.T) {
	oldDB := DB
	defer func() { DB = oldDB }()

	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: "release"},
		Database: config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "wallet.db")},
	}
	require.NoError(t, Init(cfg))
	require.NotNil(t, GetDB())

	var count int64
	require.NoError(t, DB.Model(&models.Category{}).Count(&count).Error)
	assert.Equal(t, int64(len(models.GetDefaultCategories())), count)

	// 再次迁移不会重复写入默认类别
	require.NoError(t, Migrate(DB))
	require.NoError(t, DB.Model(&models.Category{}).Count(&count).Error)
	assert.Equal(t, int64(len(models.GetDefaultCategories())), count)
}
