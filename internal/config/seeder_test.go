package config

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"salonq/internal/adapters/persistence/models"
)

func newSeedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func TestSeeder_UsesConfiguredPriorityLimit(t *testing.T) {
	db := newSeedDB(t)
	require.NoError(t, NewSeeder(db, 7).Run())

	var salon models.Salon
	require.NoError(t, db.First(&salon).Error)
	assert.Equal(t, 7, salon.PriorityLimitPerDay)

	// second run is a no-op
	require.NoError(t, NewSeeder(db, 9).Run())
	var count int64
	require.NoError(t, db.Model(&models.Salon{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSeeder_FallsBackWithoutLimit(t *testing.T) {
	db := newSeedDB(t)
	require.NoError(t, NewSeeder(db, 0).Run())

	var salon models.Salon
	require.NoError(t, db.First(&salon).Error)
	assert.Equal(t, 3, salon.PriorityLimitPerDay)
}
