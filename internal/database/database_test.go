package database

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRejectsUnknownDriver(t *testing.T) {
	viper.Reset()
	viper.Set("DB_DRIVER", "oracle")

	_, err := Connect()
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}

func TestMigrateRunsEveryStatement(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()

	for range schema {
		mock.ExpectExec(`CREATE`).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, Migrate(sqlx.NewDb(raw, "sqlmock")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStopsOnError(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS washroom_configs`).WillReturnError(errors.New("permission denied"))

	err = Migrate(sqlx.NewDb(raw, "sqlmock"))
	assert.ErrorContains(t, err, "permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}
