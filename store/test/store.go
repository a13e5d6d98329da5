package test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrygo/wabot/internal/profile"
	"github.com/hrygo/wabot/store"
	"github.com/hrygo/wabot/store/db"
)

// NewTestingStore returns a migrated store backed by the driver named in
// DRIVER (sqlite by default). SQLite stores live in a per-test temp dir.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()
	profile := getTestingProfile(t)
	dbDriver, err := db.NewDBDriver(profile)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	ts := store.New(dbDriver, profile)
	if err := ts.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		ts.Close()
	})
	return ts
}

func getTestingProfile(t *testing.T) *profile.Profile {
	t.Helper()
	driver := getDriverFromEnv()
	p := &profile.Profile{
		Mode:   "dev",
		Driver: driver,
	}
	switch driver {
	case "sqlite":
		p.Data = t.TempDir()
		p.DSN = filepath.Join(p.Data, fmt.Sprintf("wabot_%s.db", p.Mode))
	case "postgres":
		p.DSN = GetPostgresDSN(t)
	}
	return p
}

func getDriverFromEnv() string {
	if driver := os.Getenv("DRIVER"); driver != "" {
		return driver
	}
	return "sqlite"
}
