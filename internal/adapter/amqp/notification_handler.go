package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

// NotificationHandler prints order status updates for the notification subscriber.
type NotificationHandler struct {
	logger logger.Logger
	out    io.Writer
}

func NewNotificationHandler(logger logger.Logger, out io.Writer) *NotificationHandler {
	return &NotificationHandler{
		logger: logger,
		out:    out,
	}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.StatusUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Received status update for order %s", msg.OrderNumber),
		msg.OrderNumber, map[string]interface{}{
			"order_number": msg.OrderNumber,
			"new_status":   msg.NewStatus,
		})

	line := fmt.Sprintf("Notification for order %s: Status changed from '%s' to '%s' by %s",
		msg.OrderNumber, msg.OldStatus, msg.NewStatus, msg.ChangedBy)
	if msg.EstimatedCompletion != nil {
		line += fmt.Sprintf(", ready by %s", msg.EstimatedCompletion.Format("15:04:05"))
	}

	_, err := fmt.Fprintln(h.out, line)
	return err
}
