package system

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/careminder/internal/cli"
	"github.com/julianstephens/careminder/internal/config"
	"github.com/julianstephens/careminder/internal/i18n"
	"github.com/julianstephens/careminder/internal/storage/sqlite"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

// newTestContext builds a context over an unopened SQLite store at dbPath.
func newTestContext(t *testing.T, dbPath string, clock *testClock) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(dbPath)
	t.Cleanup(func() { store.Close() })

	opts := cli.Options{Lang: i18n.English, BoundRecurring: true}
	if clock != nil {
		opts.Now = clock.Now
	}
	ctx := cli.NewContext(config.Target{Location: dbPath, Source: config.SourceFlag}, store, opts)

	var out bytes.Buffer
	ctx.Out = &out
	return ctx, &out
}

func setupTestDB(t *testing.T, clock *testClock) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	ctx, out := newTestContext(t, filepath.Join(t.TempDir(), "test.db"), clock)
	if err := ctx.Store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	return ctx, out
}
