package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/JonMunkholm/cohort/internal/core"
)

const mysqlSchema = `
CREATE TABLE IF NOT EXISTS cohort_imports (
	slot        VARCHAR(64)  NOT NULL PRIMARY KEY,
	import_id   VARCHAR(64)  NOT NULL,
	file_name   VARCHAR(255) NOT NULL,
	imported_at DATETIME(6)  NOT NULL,
	payload     LONGBLOB     NOT NULL,
	updated_at  TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6)
)`

const mysqlUpsert = `
INSERT INTO cohort_imports (slot, import_id, file_name, imported_at, payload)
VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
	import_id   = VALUES(import_id),
	file_name   = VALUES(file_name),
	imported_at = VALUES(imported_at),
	payload     = VALUES(payload)`

const mysqlSelect = `SELECT payload FROM cohort_imports WHERE slot = ?`

// MySQL stores the last import in a MySQL or MariaDB table.
type MySQL struct {
	db   *sql.DB
	slot string
}

// OpenMySQL accepts either a driver DSN (user:pass@tcp(host)/db) or a
// mysql:// / mariadb:// URL.
func OpenMySQL(ctx context.Context, opts Options) (*MySQL, error) {
	dsn, err := toMySQLDSN(opts.URL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	maxConns := opts.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	if _, err := db.ExecContext(ctx, mysqlSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cohort_imports: %w", err)
	}

	return NewMySQL(db, opts.Slot), nil
}

// NewMySQL wraps an existing handle. The table must already exist.
func NewMySQL(db *sql.DB, slot string) *MySQL {
	if slot == "" {
		slot = core.LastImportKey
	}
	return &MySQL{db: db, slot: slot}
}

// toMySQLDSN converts URL-style DSNs to the driver format. Anything else is
// validated by the driver parser and returned with parseTime forced on.
func toMySQLDSN(dsn string) (string, error) {
	var cfg *mysql.Config

	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}

		cfg = mysql.NewConfig()
		if u.User != nil {
			cfg.User = u.User.Username()
			cfg.Passwd, _ = u.User.Password()
		}
		cfg.Net = "tcp"
		cfg.Addr = u.Host
		cfg.DBName = strings.TrimPrefix(u.Path, "/")

		if cfg.User == "" || cfg.Addr == "" || cfg.DBName == "" {
			return "", fmt.Errorf("%w: mysql dsn needs user, host and database", core.ErrInvalidArgument)
		}
	} else {
		var err error
		if cfg, err = mysql.ParseDSN(dsn); err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
	}

	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.InterpolateParams = true
	return cfg.FormatDSN(), nil
}

func (m *MySQL) SaveLastImport(ctx context.Context, snap core.Snapshot) error {
	payload, err := core.EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	if _, err := m.db.ExecContext(ctx, mysqlUpsert,
		m.slot, snap.ID, snap.FileName, snap.ImportedAt.UTC(), payload,
	); err != nil {
		return fmt.Errorf("upsert %s: %w", m.slot, err)
	}
	return nil
}

func (m *MySQL) LoadLastImport(ctx context.Context) (*core.Snapshot, error) {
	var payload []byte
	err := m.db.QueryRowContext(ctx, mysqlSelect, m.slot).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNoImport
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", m.slot, err)
	}
	return core.DecodeSnapshot(payload)
}

func (m *MySQL) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *MySQL) Close() error {
	return m.db.Close()
}
