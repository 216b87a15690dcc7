package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	// SQLite ドライバを匿名インポートして database/sql に登録する。
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteConfig は SQLite 接続の設定値をまとめた構造体。
type SQLiteConfig struct {
	// Path は DB ファイルへのパス。":memory:" を指定するとオンメモリ DB を利用する。
	Path string
	// MaxOpenConns は最大同時接続数。SQLite はシングルライタであるため小さめを推奨。
	MaxOpenConns int
	// MaxIdleConns はアイドル接続数。
	MaxIdleConns int
	// ConnMaxLifetime はコネクションのライフタイム。
	ConnMaxLifetime time.Duration
}

// OpenSQLite は設定に基づき SQLite データベースを開く。
func OpenSQLite(cfg SQLiteConfig) (*sql.DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("open sqlite: path must not be empty")
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}

// EnsureSchema は必要なテーブルが存在することを保証するマイグレーション関数。
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const createTable = `
CREATE TABLE IF NOT EXISTS scores (
    id TEXT PRIMARY KEY,
    poles INTEGER NOT NULL,
    disks INTEGER NOT NULL,
    blindfold INTEGER NOT NULL,
    illegal_moves INTEGER NOT NULL,
    start_pole INTEGER NOT NULL,
    end_pole INTEGER NOT NULL,
    time_ns INTEGER NOT NULL,
    recorded_at TIMESTAMP NOT NULL,
    moves TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scores_header
    ON scores (poles, disks, blindfold, illegal_moves, start_pole, end_pole);
`

	if _, err := db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	return nil
}

// BackupFile は DB ファイルをタイムスタンプ付きの複製として同じディレクトリに残す。
// 起動時のバックアップ用であり、DB を開く前に呼ぶこと。元ファイルが存在しない
// 場合は何もしない。作成した複製のパスを返す。
func BackupFile(path string, now time.Time) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("backup sqlite: %w", err)
	}
	defer src.Close()

	ext := filepath.Ext(path)
	base := path[:len(path)-len(ext)]
	backupPath := fmt.Sprintf("%s-%s%s", base, now.UTC().Format("20060102T150405Z"), ext)

	dst, err := os.Create(backupPath)
	if err != nil {
		return "", fmt.Errorf("backup sqlite: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("backup sqlite: %w", err)
	}

	return backupPath, nil
}
