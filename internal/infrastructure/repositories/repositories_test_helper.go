package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createInvoiceTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE invoices (
		id TEXT PRIMARY KEY,
		creator_wallet_address TEXT NOT NULL,
		recipient_address TEXT,
		recipient_email TEXT,
		amount TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL,
		payment_hash TEXT,
		chain_id INTEGER NOT NULL,
		token_symbol TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		expires_at DATETIME
	);`)
}

func createUserProfileTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE user_profiles (
		id TEXT PRIMARY KEY,
		wallet_address TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}
