package consumer

import (
	"context"
	"encoding/json"

	"github.com/Eursukkul/booking-settlement/internal/dto"
	"github.com/Eursukkul/booking-settlement/internal/service"
	"github.com/Eursukkul/booking-settlement/pkg/logger"
	"github.com/go-playground/validator/v10"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const RoutingPayoutExecute = "payout.execute"

// PayoutConsumer runs payout.execute commands through the payout engine.
type PayoutConsumer struct {
	svc      service.PayoutService
	validate *validator.Validate
	log      *logrus.Entry
}

func NewPayoutConsumer(svc service.PayoutService) *PayoutConsumer {
	return &PayoutConsumer{
		svc:      svc,
		validate: validator.New(),
		log:      logger.For("payout-consumer"),
	}
}

// Start processes deliveries until msgs is closed. done is closed afterwards.
func (pc *PayoutConsumer) Start(ctx context.Context, msgs <-chan amqp.Delivery) (done <-chan struct{}) {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for msg := range msgs {
			pc.handleMessage(ctx, msg)
		}
		pc.log.Info("channel closed, stopping consumer")
	}()
	return finished
}

func (pc *PayoutConsumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	var cmd dto.PayoutCommand
	if err := json.Unmarshal(msg.Body, &cmd); err != nil {
		pc.log.WithError(err).Warn("failed to unmarshal payout command")
		_ = msg.Nack(false, false)
		return
	}
	if err := pc.validate.Struct(&cmd); err != nil {
		pc.log.WithError(err).Warn("invalid payout command")
		_ = msg.Nack(false, false)
		return
	}

	log := pc.log.WithFields(logrus.Fields{"payout_id": cmd.PayoutID, "executed_by": cmd.ExecutedBy})

	err := pc.svc.ExecutePayout(ctx, cmd.PayoutID, cmd.ExecutedBy)
	switch code := service.CodeOf(err); {
	case err == nil:
		log.Info("payout command processed")
		_ = msg.Ack(false)
	case code == service.CodeConflict:
		log.WithError(err).Info("payout busy, requeueing command")
		_ = msg.Nack(false, true)
	default:
		log.WithError(err).WithField("code", code).Error("payout command failed")
		_ = msg.Nack(false, false)
	}
}
