// Package mysql implements the repository ports on database/sql with the
// go-sql-driver/mysql driver.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/01moynul/taptosell-settlement/internal/repository"
)

// errDuplicateEntry is the MySQL error number for a unique key violation.
const errDuplicateEntry = 1062

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// NewRepositories creates a new set of repositories
func NewRepositories(db *sql.DB, logger *zap.Logger) *repository.Repositories {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &repository.Repositories{
		Order:            NewOrderRepository(db, logger),
		Product:          NewProductRepository(db, logger),
		Affiliate:        NewAffiliateRepository(db, logger),
		Commission:       NewCommissionRepository(db, logger),
		Seller:           NewSellerRepository(db, logger),
		SellerSettings:   NewSellerSettingsRepository(db, logger),
		PlatformSettings: NewPlatformSettingsRepository(db, logger),
		Invoice:          NewInvoiceRepository(db, logger),
		Notification:     NewNotificationRepository(db, logger),
	}
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == errDuplicateEntry
}

// inClause returns "?, ?, ?" for n placeholders and the ids as query args.
func inClause(ids []uuid.UUID) (string, []interface{}) {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
