package queries

import (
	"context"

	"github.com/google/uuid"

	"roomstay/internal/infra"
	"roomstay/internal/pkg/errs"
)

type bookingQueriesImpl struct {
	repo BookingViewRepo
}

func NewBookingQueries(repo BookingViewRepo) BookingQueries {
	return &bookingQueriesImpl{repo: repo}
}

func (q *bookingQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*BookingView, error) {
	view, err := q.repo.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrBookingNotFound)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return view, nil
}

func (q *bookingQueriesImpl) ListByGuest(ctx context.Context, guestID uuid.UUID, limit int) ([]*BookingListItem, error) {
	if limit <= 0 {
		limit = 50
	}
	items, err := q.repo.FindByGuestID(ctx, guestID, int32(limit))
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return items, nil
}
