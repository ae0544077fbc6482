package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/bookable/bookingd/internal/booking"
)

// TopicOrderCanceled is emitted by the order system when an order is voided.
// The booking engine releases the order's reserved window in response.
const TopicOrderCanceled = "order.canceled"

type orderEvent struct {
	ID string `json:"id"`
}

// OrderCanceledHandler cancels the scheduled appointment of a canceled order.
// An order with no appointment, or one the engine never saw, is not an error;
// the event is simply acknowledged.
func OrderCanceledHandler(svc *booking.Service, logger *slog.Logger) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var evt orderEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.Error("malformed order.canceled payload dropped", "err", err)
			return nil
		}
		if evt.ID == "" {
			logger.Error("order.canceled payload missing order id")
			return nil
		}

		if err := svc.CancelByOrder(ctx, evt.ID); err != nil {
			if errors.Is(err, booking.ErrOrderNotFound) {
				return nil
			}
			return fmt.Errorf("cancel appointments for order %s: %w", evt.ID, err)
		}
		logger.Info("released booking for canceled order", "order_id", evt.ID)
		return nil
	}
}
