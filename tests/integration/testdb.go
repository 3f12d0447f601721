// Package integration runs the invoice pipeline against a real PostgreSQL
// started with testcontainers. The suite is skipped with -short.
package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	mpg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/persistence"
	"github.com/invoicer/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// invoiceTables lists every table the schema owns, children first.
var invoiceTables = []string{"invoices", "clients", "issuer_profiles"}

// postgresServer is the container shared by every test in the package. It
// is started on first use and migrated once.
var postgresServer struct {
	mu        sync.Mutex
	container testcontainers.Container
	dsn       string
	err       error
}

// TestDB is a connection to the shared database with an empty schema.
type TestDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
	DSN   string
	t     *testing.T
}

// NewTestDB connects to the shared container and truncates every table, so
// each test starts from the migrated but empty schema. Tests using it must
// not run in parallel.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	dsn, err := sharedDSN()
	require.NoError(t, err, "Failed to start PostgreSQL container")

	db, sqlDB := connectToDatabase(t, dsn)
	tdb := &TestDB{DB: db, SqlDB: sqlDB, DSN: dsn, t: t}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	tdb.CleanTables()
	return tdb
}

// CleanTables empties the invoice schema.
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	stmt := "TRUNCATE TABLE "
	for i, table := range invoiceTables {
		if i > 0 {
			stmt += ", "
		}
		stmt += table
	}
	require.NoError(tdb.t, tdb.DB.Exec(stmt+" CASCADE").Error, "Failed to truncate tables")
}

// sharedDSN starts and migrates the container on first call. A failed start
// is remembered so later tests fail fast.
func sharedDSN() (string, error) {
	postgresServer.mu.Lock()
	defer postgresServer.mu.Unlock()

	if postgresServer.container != nil || postgresServer.err != nil {
		return postgresServer.dsn, postgresServer.err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("invoicer_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		postgresServer.err = err
		return "", err
	}
	postgresServer.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		postgresServer.err = err
		return "", err
	}
	if err := migrateSchema(dsn); err != nil {
		postgresServer.err = err
		return "", err
	}

	postgresServer.dsn = dsn
	return dsn, nil
}

// terminateSharedContainer stops the container once the package is done.
func terminateSharedContainer() {
	postgresServer.mu.Lock()
	defer postgresServer.mu.Unlock()

	if postgresServer.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := postgresServer.container.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate PostgreSQL container: %v\n", err)
	}
	postgresServer.container = nil
	postgresServer.dsn = ""
}

// connectToDatabase establishes a GORM connection to the database
func connectToDatabase(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), gormConfig)
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "Failed to get underlying SQL DB")

	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, sqlDB
}

// migrateSchema applies migrations/ with golang-migrate.
func migrateSchema(dsn string) error {
	migrationsPath := findMigrationsPath()
	if migrationsPath == "" {
		return errors.New("could not find migrations directory")
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	driver, err := mpg.WithInstance(sqlDB, &mpg.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// findMigrationsPath walks up from this file to the module's migrations/.
func findMigrationsPath() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	dir := filepath.Dir(filename)
	for i := 0; i < 5; i++ {
		migrationsPath := filepath.Join(dir, "migrations")
		if _, err := os.Stat(migrationsPath); err == nil {
			return migrationsPath
		}
		dir = filepath.Dir(dir)
	}
	return ""
}

// SeedClient inserts a client owned by ownerID.
func (tdb *TestDB) SeedClient(ownerID string) *invoicing.Client {
	tdb.t.Helper()

	client := testutil.NewClient(ownerID)
	err := persistence.NewGormClientRepository(tdb.DB).Save(context.Background(), client)
	require.NoError(tdb.t, err, "Failed to seed client")
	return client
}

// SeedInvoice inserts a draft invoice for the client.
func (tdb *TestDB) SeedInvoice(ownerID, clientID, number string) *invoicing.Invoice {
	tdb.t.Helper()

	invoice := testutil.NewInvoice(ownerID, clientID, number)
	err := persistence.NewGormInvoiceRepository(tdb.DB).Save(context.Background(), invoice)
	require.NoError(tdb.t, err, "Failed to seed invoice")
	return invoice
}

// SeedIssuerProfile inserts company settings for the principal.
func (tdb *TestDB) SeedIssuerProfile(principalID string) *invoicing.IssuerProfile {
	tdb.t.Helper()

	profile := &invoicing.IssuerProfile{
		PrincipalID:        principalID,
		CompanyName:        "Initech LLC",
		CompanyAddress:     "4120 Freidrich Lane\nAustin, TX",
		CompanyEmail:       "billing@initech.example",
		BankDetails:        "IBAN DE00 0000 0000 0000",
		InvoiceStartNumber: 174,
		DefaultTaxRate:     decimal.Zero,
		DefaultCurrency:    "USD",
		UpdatedAt:          time.Now().UTC().Truncate(time.Second),
	}
	err := persistence.NewGormIssuerProfileRepository(tdb.DB).Save(context.Background(), profile)
	require.NoError(tdb.t, err, "Failed to seed issuer profile")
	return profile
}
