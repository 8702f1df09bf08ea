package keystore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/alicesring/snapdemo/pkg/log"
	"github.com/alicesring/snapdemo/pkg/sign"
)

//go:embed migrations/postgres/*.sql
var embedMigrations embed.FS

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("key already stored")
)

type AccountDTO struct {
	ID        string    `gorm:"column:id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (AccountDTO) TableName() string { return "accounts" }

type KeyDTO struct {
	Address    string    `gorm:"column:address;primaryKey"`
	AccountID  string    `gorm:"column:account_id;not null;uniqueIndex:idx_account_keys_account_seq"`
	Seq        int       `gorm:"column:seq;not null;uniqueIndex:idx_account_keys_account_seq"`
	PublicKey  string    `gorm:"column:public_key;not null;unique"`
	PrivateKey string    `gorm:"column:private_key;not null;unique"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
}

func (KeyDTO) TableName() string { return "account_keys" }

// Store persists the development provider's single account and its keys.
// The schema is absent until Install runs, which is what the provider's
// Detect observes.
type Store struct {
	db  *gorm.DB
	cnf Config
	lg  log.Logger
}

// Open connects to the configured backend without touching the schema.
func Open(cnf Config, lg log.Logger) (*Store, error) {
	if cnf.URL != "" {
		parsed, err := ParseConnectionString(cnf.URL)
		if err != nil {
			return nil, err
		}
		cnf = parsed
	}
	lg = lg.WithName("keystore")

	var dial gorm.Dialector
	switch cnf.Driver {
	case "postgres":
		lg.Debug("connecting to postgres", "host", cnf.Host, "db", cnf.Name)
		dial = postgres.Open(cnf.postgresDSN())
	case "sqlite", "":
		lg.Debug("connecting to sqlite", "name", cnf.Name)
		cnf.Driver = "sqlite"
		dial = sqlite.Open(cnf.sqliteDSN())
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cnf.Driver)
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s keystore: %w", cnf.Driver, err)
	}

	return &Store{db: db, cnf: cnf, lg: lg}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsInstalled reports whether the schema exists.
func (s *Store) IsInstalled(ctx context.Context) (bool, error) {
	m := s.db.WithContext(ctx).Migrator()
	return m.HasTable(&AccountDTO{}) && m.HasTable(&KeyDTO{}), nil
}

// Install creates the schema. It is safe to run more than once.
func (s *Store) Install(ctx context.Context) error {
	switch s.cnf.Driver {
	case "postgres":
		if err := s.ensurePostgresSchema(ctx); err != nil {
			return fmt.Errorf("failed to ensure postgres schema: %w", err)
		}
		if err := s.migratePostgres(ctx); err != nil {
			return fmt.Errorf("failed to apply postgres migrations: %w", err)
		}
	default:
		if err := s.db.WithContext(ctx).AutoMigrate(&AccountDTO{}, &KeyDTO{}); err != nil {
			return fmt.Errorf("failed to auto-migrate keystore schema: %w", err)
		}
	}
	s.lg.Info("keystore installed", "driver", s.cnf.Driver)
	return nil
}

func (s *Store) ensurePostgresSchema(ctx context.Context) error {
	if s.cnf.Schema == "" {
		return nil
	}

	admin := s.cnf
	admin.Schema = ""
	db, err := sqlx.ConnectContext(ctx, "postgres", admin.postgresDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	var exists bool
	if err := db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)", s.cnf.Schema); err != nil {
		return fmt.Errorf("error while checking schema existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+pq.QuoteIdentifier(s.cnf.Schema)); err != nil {
		return fmt.Errorf("error while creating schema: %w", err)
	}
	s.lg.Info("schema created", "schema", s.cnf.Schema)
	return nil
}

func (s *Store) migratePostgres(ctx context.Context) error {
	db, err := goose.OpenDBWithDriver("postgres", s.cnf.postgresDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	return goose.UpContext(ctx, db, "migrations/postgres")
}

// Account returns the stored account or ErrNotFound.
func (s *Store) Account(ctx context.Context) (*AccountDTO, error) {
	var acc AccountDTO
	err := s.db.WithContext(ctx).Order("created_at ASC").First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to retrieve account: %w", err)
	}
	return &acc, nil
}

// CreateAccount stores a new account with its first key.
func (s *Store) CreateAccount(ctx context.Context, privateKeyHex string) (*AccountDTO, error) {
	acc := AccountDTO{ID: uuid.NewString(), CreatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&acc).Error; err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		_, err := addKey(tx, acc.ID, privateKeyHex)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// AddKey appends a key to the account; keys keep insertion order.
func (s *Store) AddKey(ctx context.Context, accountID, privateKeyHex string) (*KeyDTO, error) {
	var dto *KeyDTO
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		dto, err = addKey(tx, accountID, privateKeyHex)
		return err
	})
	return dto, err
}

func addKey(tx *gorm.DB, accountID, privateKeyHex string) (*KeyDTO, error) {
	signer, err := sign.NewEthereumSigner(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	address := signer.PublicKey().Address().String()

	var existing int64
	if err := tx.Model(&KeyDTO{}).Where("address = ?", address).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to look up key: %w", err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, address)
	}

	var count int64
	if err := tx.Model(&KeyDTO{}).Where("account_id = ?", accountID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count keys: %w", err)
	}

	dto := KeyDTO{
		Address:    address,
		AccountID:  accountID,
		Seq:        int(count),
		PublicKey:  signer.PublicKey().String(),
		PrivateKey: privateKeyHex,
		CreatedAt:  time.Now().UTC(),
	}
	if err := tx.Create(&dto).Error; err != nil {
		return nil, fmt.Errorf("failed to add key: %w", err)
	}
	return &dto, nil
}

// Keys returns the account's keys in insertion order.
func (s *Store) Keys(ctx context.Context, accountID string) ([]KeyDTO, error) {
	var keys []KeyDTO
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).Order("seq ASC").Find(&keys).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve keys: %w", err)
	}
	return keys, nil
}

// Key returns the account's key for address or ErrNotFound.
func (s *Store) Key(ctx context.Context, accountID, address string) (*KeyDTO, error) {
	var key KeyDTO
	err := s.db.WithContext(ctx).Where("account_id = ? AND address = ?", accountID, address).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to retrieve key: %w", err)
	}
	return &key, nil
}
