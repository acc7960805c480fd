package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements(`-- header comment
CREATE TABLE a (id INT);

-- another
CREATE TABLE b (id INT);
`)
	assert.Equal(t, []string{"CREATE TABLE a (id INT)", "CREATE TABLE b (id INT)"}, stmts)
}

func TestEmbeddedSchemaCreatesSettlementTables(t *testing.T) {
	stmts := splitStatements(schema)
	joined := strings.Join(stmts, "\n")
	for _, table := range []string{"orders", "order_items", "affiliate_commissions", "invoices", "invoice_items", "seller_settings", "platform_settings", "notifications"} {
		assert.Contains(t, joined, "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
	for _, stmt := range stmts {
		assert.True(t, strings.HasPrefix(stmt, "CREATE TABLE IF NOT EXISTS"), stmt)
	}
}
