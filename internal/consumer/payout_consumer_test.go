package consumer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Eursukkul/booking-settlement/internal/models"
	"github.com/Eursukkul/booking-settlement/internal/service"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock PayoutService ---

type mockPayoutService struct {
	executeFn func(ctx context.Context, payoutID string, executedBy models.ExecutorRole) error
}

func (m *mockPayoutService) ExecutePayout(ctx context.Context, payoutID string, executedBy models.ExecutorRole) error {
	return m.executeFn(ctx, payoutID, executedBy)
}
func (m *mockPayoutService) GetPayout(ctx context.Context, id string) (*models.Payout, error) {
	return nil, service.ErrPayoutNotFound
}
func (m *mockPayoutService) ReapStaleLocks(ctx context.Context, ttl time.Duration) (int, error) {
	return 0, nil
}

// --- Fake Acknowledger ---

type ackRecorder struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (a *ackRecorder) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *ackRecorder) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func delivery(body string) (amqp.Delivery, *ackRecorder) {
	ack := &ackRecorder{}
	return amqp.Delivery{Acknowledger: ack, Body: []byte(body)}, ack
}

func TestHandleMessage(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		err         error
		wantAck     bool
		wantRequeue bool
	}{
		{"paid", `{"payout_id":"p-1","executed_by":"SYSTEM"}`, nil, true, false},
		{"locked elsewhere", `{"payout_id":"p-1","executed_by":"SYSTEM"}`, service.ErrPayoutLocked, false, true},
		{"insufficient funds", `{"payout_id":"p-1","executed_by":"ADMIN"}`, service.ErrInsufficientFunds, false, false},
		{"provider failure", `{"payout_id":"p-1","executed_by":"SYSTEM"}`, fmt.Errorf("%w: %w", service.ErrProviderFailure, errors.New("timeout")), false, false},
		{"malformed body", `{not json`, nil, false, false},
		{"unknown executor", `{"payout_id":"p-1","executed_by":"ARTIST"}`, nil, false, false},
		{"missing payout id", `{"executed_by":"SYSTEM"}`, nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			svc := &mockPayoutService{
				executeFn: func(ctx context.Context, payoutID string, executedBy models.ExecutorRole) error {
					calls++
					assert.Equal(t, "p-1", payoutID)
					return tt.err
				},
			}
			msg, ack := delivery(tt.body)

			NewPayoutConsumer(svc).handleMessage(context.Background(), msg)

			assert.Equal(t, tt.wantAck, ack.acked)
			assert.Equal(t, !tt.wantAck, ack.nacked)
			assert.Equal(t, tt.wantRequeue, ack.requeued)
			assert.LessOrEqual(t, calls, 1)
		})
	}
}

func TestStart_StopsWhenChannelCloses(t *testing.T) {
	executed := make(chan string, 1)
	svc := &mockPayoutService{
		executeFn: func(ctx context.Context, payoutID string, executedBy models.ExecutorRole) error {
			executed <- payoutID
			return nil
		},
	}

	msgs := make(chan amqp.Delivery, 1)
	msg, ack := delivery(`{"payout_id":"p-9","executed_by":"SYSTEM"}`)
	msgs <- msg
	close(msgs)

	done := NewPayoutConsumer(svc).Start(context.Background(), msgs)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	require.Equal(t, "p-9", <-executed)
	assert.True(t, ack.acked)
}
