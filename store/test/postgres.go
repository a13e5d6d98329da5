package test

import (
	"os"
	"testing"
)

// GetPostgresDSN returns the DSN for PostgreSQL testing from POSTGRES_TEST_DSN.
// Tests are skipped when it is not set.
func GetPostgresDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	return dsn
}
