//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func CreateTestGuest(t *testing.T, db DBLike, email string) uuid.UUID {
	t.Helper()

	guestID := uuid.New()
	ctx := context.Background()

	tag, err := db.Exec(ctx, "INSERT INTO guests (id, email, name) VALUES ($1, $2, 'Test Guest') ON CONFLICT (email) DO NOTHING",
		guestID, email)
	require.NoError(t, err)

	if tag.RowsAffected() == 0 {
		_ = db.QueryRow(ctx, "SELECT id FROM guests WHERE email = $1", email).Scan(&guestID)
	}

	return guestID
}

func CreateTestProperty(t *testing.T, db DBLike, name string, maxGuests int) uuid.UUID {
	t.Helper()

	propertyID := uuid.New()
	var tenantID uuid.UUID

	ctx := context.Background()
	err := db.QueryRow(ctx, "SELECT id FROM tenants WHERE name = 'Default Tenant' LIMIT 1").Scan(&tenantID)
	require.NoError(t, err)

	_, err = db.Exec(ctx, "INSERT INTO properties (id, tenant_id, name, max_guests) VALUES ($1, $2, $3, $4)",
		propertyID, tenantID, name, maxGuests)
	require.NoError(t, err)

	return propertyID
}

func CreateTestRoom(t *testing.T, db DBLike, propertyID uuid.UUID, name string, basePriceCents int64, capacity int) uuid.UUID {
	t.Helper()

	roomID := uuid.New()
	ctx := context.Background()

	_, err := db.Exec(ctx, "INSERT INTO rooms (id, property_id, name, base_price_cents, capacity) VALUES ($1, $2, $3, $4, $5)",
		roomID, propertyID, name, basePriceCents, capacity)
	require.NoError(t, err)

	return roomID
}

func BlockRoomDate(t *testing.T, db DBLike, roomID uuid.UUID, blockedOn time.Time) {
	t.Helper()

	ctx := context.Background()
	_, err := db.Exec(ctx, "INSERT INTO room_blocked_dates (room_id, blocked_on) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		roomID, blockedOn)
	require.NoError(t, err)
}

func CreatePercentOverride(t *testing.T, db DBLike, roomID uuid.UUID, percentOff float64, startsOn, endsOn time.Time) uuid.UUID {
	t.Helper()

	overrideID := uuid.New()
	ctx := context.Background()

	_, err := db.Exec(ctx, "INSERT INTO price_overrides (id, room_id, kind, percent_off, starts_on, ends_on) VALUES ($1, $2, 'percentage', $3, $4, $5)",
		overrideID, roomID, percentOff, startsOn, endsOn)
	require.NoError(t, err)

	return overrideID
}

// inserts basic reference data needed by tests
func SeedReferenceData(pool *pgxpool.Pool) error {
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO tenants (id, name)
		SELECT gen_random_uuid(), 'Default Tenant'
		WHERE NOT EXISTS (SELECT 1 FROM tenants WHERE name = 'Default Tenant');
	`)
	if err != nil {
		return err
	}

	return nil
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables and reseeds reference data
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return SeedReferenceData(pool)
}
