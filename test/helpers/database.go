package helpers

import (
	"testing"

	"gorm.io/gorm"

	"github.com/andrescamacho/gatherbot-go/internal/infrastructure/database"
)

// NewTestDB opens a migrated in-memory SQLite database that is closed when the test ends
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.NewTestConnection()
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}
