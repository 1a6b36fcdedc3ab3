package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"order-prefill/internal/config"
)

// ErrNotFound 表示请求的记录不存在，调用方用 errors.Is 区分空结果与查询失败。
var ErrNotFound = errors.New("record not found")

// Store 封装 SQLite 连接。
type Store struct {
	db *sql.DB
}

// NewSQLite 根据配置初始化 SQLite 存储并创建表结构。
func NewSQLite(cfg config.DatabaseConfig) (*Store, error) {
	dsn := cfg.Path
	if cfg.InMemory {
		dsn = ":memory:"
	} else {
		if err := ensureDir(filepath.Dir(cfg.Path)); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000&_foreign_keys=on", dsn))
	if err != nil {
		return nil, fmt.Errorf("打开 SQLite 数据库失败: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("设置 SQLite WAL 模式失败: %w", err)
	}

	if _, err := conn.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("设置 SQLite 同步级别失败: %w", err)
	}

	s := &Store{db: conn}
	if err := s.initSchema(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initSchema() error {
	stmt := `
CREATE TABLE IF NOT EXISTS market_data (
	snapshot_id INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol TEXT NOT NULL,
	ltp REAL NOT NULL,
	bid REAL NOT NULL,
	ask REAL NOT NULL,
	time_to_close INTEGER NOT NULL,
	volatility_pct REAL NOT NULL,
	avg_trade_size INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_market_data_symbol ON market_data(symbol);

CREATE TABLE IF NOT EXISTS client_profiles (
	cpty_id TEXT PRIMARY KEY,
	client_name TEXT NOT NULL,
	urgency_factor REAL NOT NULL,
	price_sensitivity TEXT NOT NULL,
	execution_model TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS order_data (
	order_id INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol TEXT NOT NULL,
	cpty_id TEXT NOT NULL,
	side TEXT,
	size INTEGER NOT NULL,
	order_notes TEXT NOT NULL DEFAULT '',
	arrival_time TEXT NOT NULL,
	prefill_result TEXT NOT NULL DEFAULT '{}',
	submitted_params TEXT NOT NULL DEFAULT '{}',
	trader_overrides TEXT NOT NULL DEFAULT '{}',
	submission_status TEXT NOT NULL,
	submitted_at TEXT NOT NULL
);
`
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("初始化表结构失败: %w", err)
	}
	return nil
}

// DB 返回底层 *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close 关闭数据库连接。
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("创建目录 %q 失败: %w", path, err)
	}
	return nil
}
