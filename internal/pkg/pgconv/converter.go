package pgconv

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

func UUIDToPgtype(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func UUIDFromPgtype(pu pgtype.UUID) uuid.UUID {
	if !pu.Valid {
		return uuid.Nil
	}
	return uuid.UUID(pu.Bytes)
}

func UUIDPtrFromPgtype(pu pgtype.UUID) *uuid.UUID {
	if !pu.Valid {
		return nil
	}
	id := uuid.UUID(pu.Bytes)
	return &id
}

// DateToPgtype stores a calendar date; the time of day is dropped.
func DateToPgtype(t time.Time) pgtype.Date {
	return pgtype.Date{Time: t, Valid: true}
}

// DateFromPgtype returns the date pinned to UTC midnight, the
// normalization the stay-range arithmetic expects.
func DateFromPgtype(pd pgtype.Date) time.Time {
	y, m, d := pd.Time.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TimeToPgtype(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func TimeFromPgtype(pt pgtype.Timestamptz) time.Time {
	return pt.Time
}

func StringPtrFromPgtype(pt pgtype.Text) *string {
	if !pt.Valid {
		return nil
	}
	return &pt.String
}

func Int32PtrFromPgtype(pi pgtype.Int4) *int32 {
	if !pi.Valid {
		return nil
	}
	return &pi.Int32
}

func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
