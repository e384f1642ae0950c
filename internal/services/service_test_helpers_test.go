package services

import (
	"testing"

	"github.com/nekowy/messy-protect-service/internal/crypto"
	"github.com/nekowy/messy-protect-service/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// newTestDB opens a per-test in-memory SQLite database with the same
// TranslateError behavior the production Postgres connection uses, so
// duplicate-key conflicts surface as gorm.ErrDuplicatedKey here too.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Task{}))
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func newTestServices(t *testing.T) (*AccountService, *OutboxService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	codec, err := crypto.NewCodec(testSecret)
	require.NoError(t, err)

	outbox := NewOutboxService(db, codec)
	return NewAccountService(db, outbox), outbox, db
}
