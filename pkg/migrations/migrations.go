package migrations

import (
	"fmt"
	"os"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MigrateStore runs the goose SQL migrations from migrationFolder against
// the store's database.
func MigrateStore(db *gorm.DB, migrationFolder string) error {
	goose.SetLogger(&logger{})

	fi, err := os.Stat(migrationFolder)
	if err != nil {
		return err
	}

	if !fi.Mode().IsDir() {
		return fmt.Errorf("failed to open migration folder: %s is not a folder", migrationFolder)
	}

	goose.SetBaseFS(os.DirFS(migrationFolder))

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return goose.Up(sqlDB, ".")
}

// logger implements goose.Logger interface
type logger struct{}

func (l *logger) Fatalf(format string, v ...interface{}) {
	zap.S().Named("migration").Fatalf(format, v...)
}

func (l *logger) Printf(format string, v ...interface{}) {
	zap.S().Named("migration").Infof(format, v...)
}
