package database

import (
	"database/sql"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	appfs "github.com/Mufti-IBAK/mubeen-website-sub001/fs"
)

const (
	migrationsDir = "migrations"
	driverName    = "postgres"
	pingAttempts  = 30

	// postgres error codes
	codeDuplicateDatabase = "42P04"
	codeDuplicateObject   = "42710"
)

func init() {
	goose.SetBaseFS(appfs.FS)
}

// dsn builds the connection URL for dbName, as the admin user when admin is set and one is configured.
func dsn(dbName string, admin bool, conf *core.Config) string {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	q := make(url.Values)
	q.Set("sslmode", "require")
	if conf.Database.DisableTLS {
		q.Set("sslmode", "disable")
	}
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   driverName,
		User:     user,
		Host:     conf.DatabaseAddress(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Open connects to the app database, applies the pool settings and waits until it answers.
func Open(conf *core.Config) (*sqlx.DB, error) {
	db, err := OpenURL(dsn(conf.Database.Name, false, conf))
	if err != nil {
		return nil, err
	}
	if conf.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(conf.Database.MaxOpenConns)
	}
	if conf.Database.MaxIdleConns > 0 {
		db.SetMaxIdleConns(conf.Database.MaxIdleConns)
	}
	if conf.Database.ConnMaxLife > 0 {
		db.SetConnMaxLifetime(conf.Database.ConnMaxLife)
	}
	return db, nil
}

// OpenURL connects to a database given by its URL.
func OpenURL(dataSource string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverName, dataSource)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready, 100ms longer after each failed attempt.
func ping(db *sql.DB) error {
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	return errors.Wrap(err, "DB ping timeout")
}

func exists(db *sql.DB, query, name string) (bool, error) {
	var found bool
	if err := db.QueryRow(query, name).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

// ignoreDuplicate treats "already exists" as success, for servers shared by concurrent deploys.
func ignoreDuplicate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && (pqErr.Code == codeDuplicateDatabase || pqErr.Code == codeDuplicateObject) {
		return nil
	}
	return err
}

func createAppUser(db *sql.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}
	found, err := exists(db, "SELECT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = $1)", conf.Database.User)
	if err != nil {
		return errors.Wrap(err, "checking app user")
	}
	if found {
		return nil
	}

	q := "CREATE USER " + pq.QuoteIdentifier(conf.Database.User) +
		" CREATEDB ENCRYPTED PASSWORD " + pq.QuoteLiteral(conf.Database.Password)
	if _, err = db.Exec(q); ignoreDuplicate(err) != nil {
		return errors.Wrap(err, "creating app user")
	}
	return nil
}

func createDB(db *sql.DB, conf *core.Config) error {
	found, err := exists(db, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking database")
	}
	if found {
		return nil
	}
	if _, err = db.Exec("CREATE DATABASE " + pq.QuoteIdentifier(conf.Database.Name)); ignoreDuplicate(err) != nil {
		return errors.Wrap(err, "creating database")
	}
	return nil
}

// CreateIfNotExist creates the app user (as the admin user) and then the app database (as the app user).
func CreateIfNotExist(conf *core.Config) error {
	adminDB, err := OpenURL(dsn("postgres", true, conf))
	if err != nil {
		return errors.Wrap(err, "connecting as admin")
	}
	defer func() { _ = adminDB.Close() }()
	if err = createAppUser(adminDB.DB, conf); err != nil {
		return err
	}

	appDB, err := OpenURL(dsn("postgres", false, conf))
	if err != nil {
		return errors.Wrap(err, "connecting as app user")
	}
	defer func() { _ = appDB.Close() }()
	return createDB(appDB.DB, conf)
}

// RunMigrations runs a goose command ("up", "down", "status", "redo", ...) on db.
func RunMigrations(db *sql.DB, command string, args ...string) error {
	if err := goose.SetDialect(driverName); err != nil {
		return errors.Wrap(err, "setting migrations dialect")
	}
	if err := goose.Run(command, db, migrationsDir, args...); err != nil {
		return errors.Wrapf(err, "running migrations %q", command)
	}
	return nil
}

func Migrate(db *sql.DB) error {
	if err := RunMigrations(db, "up"); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
