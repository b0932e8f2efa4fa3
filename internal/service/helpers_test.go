package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Eursukkul/booking-settlement/internal/models"
	"github.com/Eursukkul/booking-settlement/internal/repository"
	"github.com/Eursukkul/booking-settlement/pkg/database"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- Fake TransferProvider ---

type fakeTransfers struct {
	mu           sync.Mutex
	artistCalls  []int64
	managerCalls []int64
	artistErr    error
	managerErr   error
	onArtist     func(ctx context.Context) error
}

func (f *fakeTransfers) TransferToArtist(ctx context.Context, artistID string, amountCents int64, currency, bookingID string) (string, error) {
	f.mu.Lock()
	f.artistCalls = append(f.artistCalls, amountCents)
	n := len(f.artistCalls)
	f.mu.Unlock()

	if f.onArtist != nil {
		if err := f.onArtist(ctx); err != nil {
			return "", err
		}
	}
	if f.artistErr != nil {
		return "", f.artistErr
	}
	return fmt.Sprintf("trsf_artist_%d", n), nil
}

func (f *fakeTransfers) TransferToManager(ctx context.Context, managerID string, amountCents int64, currency, bookingID string) (string, error) {
	f.mu.Lock()
	f.managerCalls = append(f.managerCalls, amountCents)
	n := len(f.managerCalls)
	f.mu.Unlock()

	if f.managerErr != nil {
		return "", f.managerErr
	}
	return fmt.Sprintf("trsf_manager_%d", n), nil
}

// --- Fake RefundProvider ---

type fakeRefunds struct {
	calls  int
	err    error
	during func()
}

func (f *fakeRefunds) RefundPaymentIntent(ctx context.Context, paymentReference string, amountCents int64) (*RefundResult, error) {
	f.calls++
	if f.during != nil {
		f.during()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &RefundResult{ExternalReference: fmt.Sprintf("rfnd_%d", f.calls)}, nil
}

// --- Recording EventPublisher ---

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return p.err
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

// --- Test environment ---

type testEnv struct {
	db         *gorm.DB
	bookings   repository.BookingRepository
	records    repository.CancellationRepository
	executions repository.ExecutionRepository
	payouts    repository.PayoutRepository
	retention  repository.RetentionRepository
	publisher  *recordingPublisher
	transfers  *fakeTransfers
	refunds    *fakeRefunds
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.NewInMemoryDB()
	require.NoError(t, err)

	return &testEnv{
		db:         db,
		bookings:   repository.NewBookingRepository(db),
		records:    repository.NewCancellationRepository(db),
		executions: repository.NewExecutionRepository(db),
		payouts:    repository.NewPayoutRepository(db),
		retention:  repository.NewRetentionRepository(db),
		publisher:  &recordingPublisher{},
		transfers:  &fakeTransfers{},
		refunds:    &fakeRefunds{},
	}
}

func (e *testEnv) cancellationService() CancellationService {
	return NewCancellationService(e.bookings, e.records, e.publisher, nil)
}

func (e *testEnv) refundService() RefundService {
	return NewRefundService(e.records, e.executions, e.refunds, e.publisher, nil)
}

func (e *testEnv) payoutService() PayoutService {
	return NewPayoutService(e.payouts, e.bookings, e.retention, e.transfers, e.publisher, nil)
}

func (e *testEnv) seedBooking(t *testing.T, status models.BookingStatus) *models.Booking {
	t.Helper()
	booking := &models.Booking{
		ArtistID:   "artist-1",
		VenueID:    "venue-1",
		PromoterID: "promoter-1",
		Status:     status,
	}
	require.NoError(t, e.bookings.Create(context.Background(), booking))
	return booking
}

func (e *testEnv) hold(t *testing.T, bookingID string, amount int64) {
	t.Helper()
	require.NoError(t, e.retention.Record(context.Background(), &models.RetainedFund{
		BookingID:   bookingID,
		Movement:    models.FundHold,
		AmountCents: amount,
		Reference:   "chrg_test",
	}))
}

func requireCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, CodeOf(err), "error: %v", err)
}

var errProviderDown = errors.New("provider unavailable")
