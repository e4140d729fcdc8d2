package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/config"
)

// PostgresKV 基于 PostgreSQL 单表的键值存储
type PostgresKV struct {
	db *sql.DB
}

// NewPostgresKV 连接数据库并初始化表结构
func NewPostgresKV(cfg config.DBConfig) (*PostgresKV, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	kv, err := newPostgresKV(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return kv, nil
}

func newPostgresKV(db *sql.DB) (*PostgresKV, error) {
	kv := &PostgresKV{db: db}
	if err := kv.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return kv, nil
}

func (s *PostgresKV) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

// Get 实现 KV
func (s *PostgresKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set 实现 KV
func (s *PostgresKV) Set(ctx context.Context, key, value string) error {
	// PostgreSQL 文本字段不支持 NULL 字节
	value = strings.ReplaceAll(value, "\x00", "")
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value)
	return err
}

// Close 实现 KV
func (s *PostgresKV) Close() error {
	return s.db.Close()
}
