package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schema string

// OpenDB creates and verifies the primary Read/Write connection pool.
// The DSN must carry parseTime=true so DATETIME columns scan into time.Time.
func OpenDB(ctx context.Context, dsn string, logger *zap.Logger) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is empty")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection pool established")
	return db, nil
}

// Migrate applies the embedded schema. Every statement is CREATE ... IF NOT EXISTS,
// so running it on every boot is safe.
func Migrate(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	statements := splitStatements(schema)
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	logger.Info("Database schema is up to date", zap.Int("statements", len(statements)))
	return nil
}

// splitStatements breaks the schema file on ';' and drops comment-only chunks.
func splitStatements(src string) []string {
	var out []string
	for _, chunk := range strings.Split(src, ";") {
		var lines []string
		for _, line := range strings.Split(chunk, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			lines = append(lines, line)
		}
		stmt := strings.TrimSpace(strings.Join(lines, "\n"))
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
