package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/appointment-scheduler/internal/persistence"
	"github.com/example/appointment-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Pool         *sqlite.ConnectionPool
	Slots        persistence.SlotRepository
	Planning     persistence.PlanningRepository
	Appointments persistence.AppointmentRepository
	Comments     persistence.CommentRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness over a migrated temporary
// database file. Cleanup is registered with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	pool, err := sqlite.NewConnectionPool(filepath.Join(tb.TempDir(), "scheduler.db"))
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}
	if err := pool.Migrate(context.Background()); err != nil {
		pool.Close()
		tb.Fatalf("failed to migrate database: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:         pool,
		Slots:        sqlite.NewSlotRepository(pool),
		Planning:     sqlite.NewPlanningRepository(pool),
		Appointments: sqlite.NewAppointmentRepository(pool),
		Comments:     sqlite.NewCommentRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
