package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"

	"identity_admin/internal/models"
	"identity_admin/pkg/config"
)

func TestPingUsesUnderlyingConnection(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()

	// gorm.Open 會先 ping 一次
	mock.ExpectPing()
	db, err := NewWithDialector(postgres.New(postgres.Config{Conn: sqlDB}))
	require.NoError(t, err)

	mock.ExpectPing()
	assert.NoError(t, db.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection reset"))
	assert.Error(t, db.Ping(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewSQLiteMemory(t *testing.T) {
	db, err := New(config.DBConfig{Driver: DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.AutoMigrate(&models.ApiResource{}, &models.ApiResourceScope{}))
	assert.True(t, db.Migrator().HasTable(&models.ApiResource{}))
	assert.NoError(t, db.Ping(context.Background()))
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(config.DBConfig{Driver: "oracle"})
	assert.Error(t, err)
}
