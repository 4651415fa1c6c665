package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/hill399/linkedBtc/internal/core/domain"
	"github.com/hill399/linkedBtc/internal/core/ports"
	badgerdb "github.com/hill399/linkedBtc/internal/infrastructure/db/badger"
	pgdb "github.com/hill399/linkedBtc/internal/infrastructure/db/postgres"
	sqlitedb "github.com/hill399/linkedBtc/internal/infrastructure/db/sqlite"
	log "github.com/sirupsen/logrus"
)

//go:embed sqlite/migration/*
var migrations embed.FS

//go:embed postgres/migration/*
var pgMigration embed.FS

var (
	eventStoreTypes = map[string]func(...interface{}) (domain.EventRepository, error){
		"badger":   badgerdb.NewEventRepository,
		"postgres": pgdb.NewEventRepository,
	}
	accountStoreTypes = map[string]func(...interface{}) (domain.AccountRepository, error){
		"badger":   badgerdb.NewAccountRepository,
		"sqlite":   sqlitedb.NewAccountRepository,
		"postgres": pgdb.NewAccountRepository,
	}
	providerStoreTypes = map[string]func(...interface{}) (domain.ProviderRepository, error){
		"badger":   badgerdb.NewProviderRepository,
		"sqlite":   sqlitedb.NewProviderRepository,
		"postgres": pgdb.NewProviderRepository,
	}
	withdrawalStoreTypes = map[string]func(...interface{}) (domain.WithdrawalRepository, error){
		"badger":   badgerdb.NewWithdrawalRepository,
		"sqlite":   sqlitedb.NewWithdrawalRepository,
		"postgres": pgdb.NewWithdrawalRepository,
	}
	consumedTxStoreTypes = map[string]func(...interface{}) (domain.ConsumedTxRepository, error){
		"badger":   badgerdb.NewConsumedTxRepository,
		"sqlite":   sqlitedb.NewConsumedTxRepository,
		"postgres": pgdb.NewConsumedTxRepository,
	}
)

const (
	sqliteDbFile = "sqlite.db"
)

type ServiceConfig struct {
	EventStoreType string
	DataStoreType  string

	EventStoreConfig []interface{}
	DataStoreConfig  []interface{}
}

type service struct {
	eventStore      domain.EventRepository
	accountStore    domain.AccountRepository
	providerStore   domain.ProviderRepository
	withdrawalStore domain.WithdrawalRepository
	consumedTxStore domain.ConsumedTxRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	eventStoreFactory, ok := eventStoreTypes[config.EventStoreType]
	if !ok {
		return nil, fmt.Errorf("event store type not supported")
	}
	accountStoreFactory, ok := accountStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	providerStoreFactory := providerStoreTypes[config.DataStoreType]
	withdrawalStoreFactory := withdrawalStoreTypes[config.DataStoreType]
	consumedTxStoreFactory := consumedTxStoreTypes[config.DataStoreType]

	var eventStore domain.EventRepository
	var err error

	switch config.EventStoreType {
	case "badger":
		eventStore, err = eventStoreFactory(config.EventStoreConfig...)
		if err != nil {
			return nil, fmt.Errorf("failed to open event store: %s", err)
		}
	case "postgres":
		db, err := openPostgres(config.EventStoreConfig)
		if err != nil {
			return nil, err
		}
		eventStore, err = eventStoreFactory(db)
		if err != nil {
			return nil, fmt.Errorf("failed to open event store: %s", err)
		}
	}

	var storeConfig []interface{}
	switch config.DataStoreType {
	case "badger":
		storeConfig = config.DataStoreConfig
	case "postgres":
		db, err := openPostgres(config.DataStoreConfig)
		if err != nil {
			return nil, err
		}
		if err := migratePostgres(db); err != nil {
			return nil, err
		}
		storeConfig = []interface{}{db}
	case "sqlite":
		if len(config.DataStoreConfig) != 1 {
			return nil, fmt.Errorf("invalid data store config")
		}
		baseDir, ok := config.DataStoreConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid base directory")
		}
		db, err := sqlitedb.OpenDb(filepath.Join(baseDir, sqliteDbFile))
		if err != nil {
			return nil, fmt.Errorf("failed to open db: %s", err)
		}
		if err := migrateSqlite(db); err != nil {
			return nil, err
		}
		storeConfig = []interface{}{db}
	}

	accountStore, err := accountStoreFactory(storeConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open account store: %s", err)
	}
	providerStore, err := providerStoreFactory(storeConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open provider store: %s", err)
	}
	withdrawalStore, err := withdrawalStoreFactory(storeConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open withdrawal store: %s", err)
	}
	consumedTxStore, err := consumedTxStoreFactory(storeConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open consumed tx store: %s", err)
	}

	log.Debugf(
		"opened %s event store and %s data store", config.EventStoreType, config.DataStoreType,
	)
	return &service{
		eventStore:      eventStore,
		accountStore:    accountStore,
		providerStore:   providerStore,
		withdrawalStore: withdrawalStore,
		consumedTxStore: consumedTxStore,
	}, nil
}

func (s *service) Events() domain.EventRepository {
	return s.eventStore
}

func (s *service) Accounts() domain.AccountRepository {
	return s.accountStore
}

func (s *service) Providers() domain.ProviderRepository {
	return s.providerStore
}

func (s *service) Withdrawals() domain.WithdrawalRepository {
	return s.withdrawalStore
}

func (s *service) ConsumedTxs() domain.ConsumedTxRepository {
	return s.consumedTxStore
}

func (s *service) Close() {
	s.eventStore.Close()
	s.accountStore.Close()
	s.providerStore.Close()
	s.withdrawalStore.Close()
	s.consumedTxStore.Close()
}

// openPostgres expects (dsn string, autoCreate bool).
func openPostgres(config []interface{}) (*sql.DB, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid data store config for postgres")
	}

	dsn, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid DSN for postgres")
	}

	autoCreate, ok := config[1].(bool)
	if !ok {
		return nil, fmt.Errorf("invalid autocreate flag for postgres")
	}

	db, err := pgdb.OpenDb(dsn, autoCreate)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres db: %s", err)
	}
	return db, nil
}

func migratePostgres(db *sql.DB) error {
	pgDriver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to init postgres migration driver: %s", err)
	}

	source, err := iofs.New(pgMigration, "postgres/migration")
	if err != nil {
		return fmt.Errorf("failed to embed postgres migrations: %s", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", pgDriver)
	if err != nil {
		return fmt.Errorf("failed to create postgres migration instance: %s", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run postgres migrations: %s", err)
	}
	return nil
}

func migrateSqlite(db *sql.DB) error {
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("failed to init driver: %s", err)
	}

	source, err := iofs.New(migrations, "sqlite/migration")
	if err != nil {
		return fmt.Errorf("failed to embed migrations: %s", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "linkedbtcdb", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %s", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %s", err)
	}
	return nil
}
