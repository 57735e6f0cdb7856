package db

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/config"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/models"
)

func TestNewDBSQLite(t *testing.T) {
	cfg := &config.RegistryStore{
		Driver: "sqlite",
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}

	db, err := NewDB(cfg)
	require.NoError(t, err)

	// The migration ran: the allocation table accepts rows.
	assert.True(t, db.Migrator().HasTable(&models.BulletAllocation{}))
	assert.True(t, db.Migrator().HasTable(&models.ReconciliationRun{}))
}

func TestNewDBRejectsBadConfig(t *testing.T) {
	_, err := NewDB(nil)
	assert.Error(t, err)

	_, err = NewDB(&config.RegistryStore{Driver: "sqlite"})
	assert.Error(t, err, "sqlite needs a path")

	_, err = NewDB(&config.RegistryStore{Driver: "mysql"})
	assert.Error(t, err)
}
