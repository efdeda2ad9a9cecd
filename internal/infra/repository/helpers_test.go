package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/totegamma/messboard/internal/domain"
	"github.com/totegamma/messboard/internal/infra/database"
)

// openTestDB returns a private in-memory SQLite database with the production schema.
// A single connection keeps the in-memory database alive and serializes writers.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.MigratePostgres(db))
	return db
}

func testSlot(h domain.Hostel, m domain.MealType, day domain.DayKey) domain.MenuSlot {
	return domain.MenuSlot{Hostel: h, MealType: m, MenuDate: day}
}

func testItem(text, createdBy string) domain.MenuItem {
	return domain.MenuItem{
		ID:         uuid.NewString(),
		Text:       text,
		CreatedBy:  createdBy,
		CreatedAt:  time.Now().UTC(),
		OwnerToken: uuid.NewString(),
	}
}
