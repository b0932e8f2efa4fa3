package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Eursukkul/booking-settlement/internal/models"
	"github.com/Eursukkul/booking-settlement/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestReviewRequired(t *testing.T) {
	tests := []struct {
		initiator models.CancellationInitiator
		reason    models.CancellationReason
		review    bool
		wantErr   error
	}{
		{models.InitiatorArtist, models.ReasonArtistJustified, true, nil},
		{models.InitiatorArtist, models.ReasonArtistUnjustified, false, nil},
		{models.InitiatorArtist, models.ReasonVenue, false, ErrInvalidReason},
		{models.InitiatorArtist, models.ReasonPromoter, false, ErrInvalidReason},
		{models.InitiatorVenue, models.ReasonVenue, false, nil},
		{models.InitiatorVenue, models.ReasonPromoter, false, nil},
		{models.InitiatorPromoter, models.ReasonPromoter, false, nil},
		{models.InitiatorVenue, models.ReasonArtistJustified, false, ErrInvalidReason},
		{models.InitiatorPromoter, models.ReasonArtistUnjustified, false, ErrInvalidReason},
		{"MANAGER", models.ReasonVenue, false, ErrInvalidInitiator},
		{models.InitiatorVenue, "WEATHER", false, ErrInvalidReason},
	}

	for _, tt := range tests {
		t.Run(string(tt.initiator)+"/"+string(tt.reason), func(t *testing.T) {
			review, err := ReviewRequired(tt.initiator, tt.reason)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.review, review)
		})
	}
}

func TestCancel_ArtistJustifiedGoesToReview(t *testing.T) {
	env := newTestEnv(t)
	svc := env.cancellationService()
	booking := env.seedBooking(t, models.StatusPaidPartial)

	res, err := svc.Cancel(context.Background(), CancelInput{
		BookingID: booking.ID,
		Initiator: models.InitiatorArtist,
		Reason:    models.ReasonArtistJustified,
	})
	require.NoError(t, err)
	assert.True(t, res.ReviewRequired)
	assert.Equal(t, models.StatusCancelledPendingReview, res.ResultingStatus)

	stored, err := svc.GetBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelledPendingReview, stored.Status)

	records, err := svc.ListCancellations(context.Background(), booking.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, res.CancellationID, records[0].ID)
	assert.Equal(t, models.ReviewPending, records[0].ReviewStatus)
	assert.Equal(t, models.StatusPaidPartial, records[0].PreviousStatus)
	assert.Equal(t, []string{RoutingBookingCancelled}, env.publisher.published())
}

func TestCancel_ImmediateResolution(t *testing.T) {
	tests := []struct {
		name      string
		initiator models.CancellationInitiator
		reason    models.CancellationReason
	}{
		{"artist unjustified", models.InitiatorArtist, models.ReasonArtistUnjustified},
		{"venue", models.InitiatorVenue, models.ReasonVenue},
		{"promoter", models.InitiatorPromoter, models.ReasonPromoter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			svc := env.cancellationService()
			booking := env.seedBooking(t, models.StatusContractSigned)

			res, err := svc.Cancel(context.Background(), CancelInput{
				BookingID: booking.ID,
				Initiator: tt.initiator,
				Reason:    tt.reason,
			})
			require.NoError(t, err)
			assert.False(t, res.ReviewRequired)
			assert.Equal(t, models.StatusCancelled, res.ResultingStatus)

			records, err := svc.ListCancellations(context.Background(), booking.ID)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, models.ReviewNotRequired, records[0].ReviewStatus)
		})
	}
}

func TestCancel_RejectsNonCancellableStates(t *testing.T) {
	statuses := []models.BookingStatus{
		models.StatusPending,
		models.StatusNegotiating,
		models.StatusFinalOfferSent,
		models.StatusAccepted,
		models.StatusPaidFull,
		models.StatusCompleted,
		models.StatusCancelledPendingReview,
		models.StatusCancelled,
	}

	env := newTestEnv(t)
	svc := env.cancellationService()
	for _, status := range statuses {
		t.Run(string(status), func(t *testing.T) {
			booking := env.seedBooking(t, status)

			_, err := svc.Cancel(context.Background(), CancelInput{
				BookingID: booking.ID,
				Initiator: models.InitiatorVenue,
				Reason:    models.ReasonVenue,
			})
			requireCode(t, err, CodeInvalidState)

			stored, err := svc.GetBooking(context.Background(), booking.ID)
			require.NoError(t, err)
			assert.Equal(t, status, stored.Status)

			records, err := svc.ListCancellations(context.Background(), booking.ID)
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestCancel_ArtistWithVenueReasonIsInvalidForAnyState(t *testing.T) {
	env := newTestEnv(t)
	svc := env.cancellationService()

	for _, status := range []models.BookingStatus{models.StatusContractSigned, models.StatusCompleted, models.StatusCancelled} {
		booking := env.seedBooking(t, status)
		_, err := svc.Cancel(context.Background(), CancelInput{
			BookingID: booking.ID,
			Initiator: models.InitiatorArtist,
			Reason:    models.ReasonVenue,
		})
		requireCode(t, err, CodeInvalidReason)
	}

	_, err := svc.Cancel(context.Background(), CancelInput{
		BookingID: "missing",
		Initiator: models.InitiatorArtist,
		Reason:    models.ReasonVenue,
	})
	requireCode(t, err, CodeInvalidReason)
}

func TestCancel_TwiceFailsWithInvalidState(t *testing.T) {
	env := newTestEnv(t)
	svc := env.cancellationService()
	booking := env.seedBooking(t, models.StatusContractSigned)
	in := CancelInput{BookingID: booking.ID, Initiator: models.InitiatorArtist, Reason: models.ReasonArtistUnjustified}

	_, err := svc.Cancel(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), in)
	requireCode(t, err, CodeInvalidState)
	assert.ErrorIs(t, err, ErrBookingNotCancellable)
}

func TestCancel_BookingNotFound(t *testing.T) {
	svc := newTestEnv(t).cancellationService()
	_, err := svc.Cancel(context.Background(), CancelInput{
		BookingID: "missing",
		Initiator: models.InitiatorVenue,
		Reason:    models.ReasonVenue,
	})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancel_Description(t *testing.T) {
	env := newTestEnv(t)
	svc := env.cancellationService()

	tooLong := strings.Repeat("x", maxDescriptionLength+1)
	booking := env.seedBooking(t, models.StatusContractSigned)
	_, err := svc.Cancel(context.Background(), CancelInput{
		BookingID:   booking.ID,
		Initiator:   models.InitiatorVenue,
		Reason:      models.ReasonVenue,
		Description: &tooLong,
	})
	requireCode(t, err, CodeInvalidInput)

	padded := "  venue flooded  "
	_, err = svc.Cancel(context.Background(), CancelInput{
		BookingID:   booking.ID,
		Initiator:   models.InitiatorVenue,
		Reason:      models.ReasonVenue,
		Description: &padded,
	})
	require.NoError(t, err)

	records, err := svc.ListCancellations(context.Background(), booking.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Description)
	assert.Equal(t, "venue flooded", *records[0].Description)
}

func TestCancel_PublishFailureDoesNotFailCancellation(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("broker down")
	svc := env.cancellationService()
	booking := env.seedBooking(t, models.StatusContractSigned)

	res, err := svc.Cancel(context.Background(), CancelInput{
		BookingID: booking.ID,
		Initiator: models.InitiatorPromoter,
		Reason:    models.ReasonPromoter,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, res.ResultingStatus)
}

func TestApproveAndReject_FinalizeCancellation(t *testing.T) {
	tests := []struct {
		name     string
		resolve  func(CancellationService, string) (*ReviewResult, error)
		decision models.ReviewStatus
		event    string
	}{
		{"approve", func(s CancellationService, id string) (*ReviewResult, error) {
			return s.Approve(context.Background(), id)
		}, models.ReviewApproved, RoutingCancellationApproved},
		{"reject", func(s CancellationService, id string) (*ReviewResult, error) {
			return s.Reject(context.Background(), id)
		}, models.ReviewRejected, RoutingCancellationRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			svc := env.cancellationService()
			booking := env.seedBooking(t, models.StatusContractSigned)

			_, err := svc.Cancel(context.Background(), CancelInput{
				BookingID: booking.ID,
				Initiator: models.InitiatorArtist,
				Reason:    models.ReasonArtistJustified,
			})
			require.NoError(t, err)

			res, err := tt.resolve(svc, booking.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusCancelled, res.Booking.Status)
			assert.Equal(t, tt.decision, res.Record.ReviewStatus)
			assert.NotNil(t, res.Record.ReviewedAt)

			records, err := svc.ListCancellations(context.Background(), booking.ID)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, tt.decision, records[0].ReviewStatus)
			assert.Contains(t, env.publisher.published(), tt.event)

			// Resolving again is no longer possible
			_, err = tt.resolve(svc, booking.ID)
			requireCode(t, err, CodeInvalidState)
		})
	}
}

func TestApprove_RequiresPendingReviewStatus(t *testing.T) {
	env := newTestEnv(t)
	svc := env.cancellationService()

	for _, status := range []models.BookingStatus{models.StatusContractSigned, models.StatusCancelled, models.StatusCompleted} {
		booking := env.seedBooking(t, status)
		_, err := svc.Approve(context.Background(), booking.ID)
		requireCode(t, err, CodeInvalidState)
		_, err = svc.Reject(context.Background(), booking.ID)
		requireCode(t, err, CodeInvalidState)
	}

	_, err := svc.Approve(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestApprove_NoPendingRecord(t *testing.T) {
	env := newTestEnv(t)
	svc := env.cancellationService()
	booking := env.seedBooking(t, models.StatusCancelledPendingReview)

	_, err := svc.Approve(context.Background(), booking.ID)
	assert.ErrorIs(t, err, ErrNoPendingReview)
	requireCode(t, err, CodeNotFound)

	stored, err := svc.GetBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelledPendingReview, stored.Status)
}

// duplicatePendingRepo reports two pending reviews, which the storage index
// otherwise makes impossible.
type duplicatePendingRepo struct {
	repository.CancellationRepository
}

func (r duplicatePendingRepo) FindPendingByBookingID(ctx context.Context, tx *gorm.DB, bookingID string) ([]models.CancellationRecord, error) {
	return []models.CancellationRecord{
		{ID: "rec-1", BookingID: bookingID, ReviewStatus: models.ReviewPending},
		{ID: "rec-2", BookingID: bookingID, ReviewStatus: models.ReviewPending},
	}, nil
}

func TestApprove_MultiplePendingIsInvariantViolation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCancellationService(env.bookings, duplicatePendingRepo{env.records}, env.publisher, nil)
	booking := env.seedBooking(t, models.StatusCancelledPendingReview)

	_, err := svc.Approve(context.Background(), booking.ID)
	assert.ErrorIs(t, err, ErrMultiplePending)
	requireCode(t, err, CodeInvariantViolation)

	stored, err := svc.GetBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelledPendingReview, stored.Status)
	assert.Empty(t, env.publisher.published())
}

func TestListCancellations_BookingNotFound(t *testing.T) {
	_, err := newTestEnv(t).cancellationService().ListCancellations(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
