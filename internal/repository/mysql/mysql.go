// Package mysql implements repository.KVStore on a MySQL-compatible server
// (MySQL, MariaDB, TiDB).
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/sakif/sourcebin/internal/apperror"
	"github.com/sakif/sourcebin/internal/repository"
)

var _ repository.KVStore = (*DB)(nil)

type DB struct {
	conn *sql.DB
}

// New connects with dsn (go-sql-driver format, e.g.
// "user:pass@tcp(localhost:3306)/sourcebin?parseTime=true") and creates the
// kv table if needed.
func New(ctx context.Context, dsn string) (*DB, error) {
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: opening database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("mysql: pinging database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)

	db := &DB{conn: conn}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("mysql: running migrations: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv (
			item_key   VARCHAR(191) NOT NULL PRIMARY KEY,
			item_value LONGBLOB     NOT NULL,
			updated_at DATETIME(3)  NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("creating kv table: %w", err)
	}
	return nil
}

func (db *DB) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := db.conn.QueryRowContext(ctx,
		`SELECT item_value FROM kv WHERE item_key = ?`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("key", key)
		}
		return nil, fmt.Errorf("mysql: getting %s: %w", key, err)
	}
	return value, nil
}

func (db *DB) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO kv (item_key, item_value, updated_at) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE item_value = VALUES(item_value), updated_at = VALUES(updated_at)`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("mysql: setting %s: %w", key, err)
	}
	return nil
}
