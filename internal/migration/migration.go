package migration

import (
	"database/sql"
	"embed"
	"errors"
	"io/fs"

	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	if db == nil {
		return nil, ierr.NewError("migration database handle is required").Mark(ierr.ErrSystem)
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return nil, ierr.WithError(err).WithMessage("open migrations").Mark(ierr.ErrSystem)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return nil, ierr.WithError(err).WithMessage("create migration source").Mark(ierr.ErrSystem)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, ierr.WithError(err).WithMessage("create migration driver").Mark(ierr.ErrDatabase)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, ierr.WithError(err).WithMessage("create migrator").Mark(ierr.ErrDatabase)
	}
	return migrator, nil
}

// Up applies every pending migration
func Up(db *sql.DB) error {
	migrator, err := newMigrator(db)
	if err != nil {
		return err
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return ierr.WithError(err).WithMessage("apply migrations").Mark(ierr.ErrDatabase)
	}
	// migrator.Close would close the shared *sql.DB
	return nil
}

// Down rolls back the given number of migrations
func Down(db *sql.DB, steps int) error {
	migrator, err := newMigrator(db)
	if err != nil {
		return err
	}

	if err := migrator.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return ierr.WithError(err).WithMessage("roll back migrations").Mark(ierr.ErrDatabase)
	}
	return nil
}

// Version returns the applied schema version
func Version(db *sql.DB) (uint, bool, error) {
	migrator, err := newMigrator(db)
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return version, dirty, nil
}
