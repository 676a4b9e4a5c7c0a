package kafka

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"storefront/internal/notify"
)

// NotificationConsumer is the worker side of the fire-and-forget
// notification queue. Delivery failures are logged and the message is
// acknowledged anyway; a broken mailer must not block the partition.
type NotificationConsumer struct {
	mailer     notify.Mailer
	adminEmail string
	logger     *zap.Logger
}

func NewNotificationConsumer(mailer notify.Mailer, adminEmail string, l *zap.Logger) *NotificationConsumer {
	return &NotificationConsumer{mailer: mailer, adminEmail: adminEmail, logger: l}
}

func (c *NotificationConsumer) HandleMessage(ctx context.Context, message []byte) error {
	var envelope notify.Envelope
	if err := json.Unmarshal(message, &envelope); err != nil {
		c.logger.Error("Error unmarshalling notification envelope", zap.Error(err), zap.String("raw_message", string(message)))
		return nil
	}

	var to, subject, html string
	switch envelope.Kind {
	case notify.KindOrderConfirmation:
		var p notify.OrderConfirmationPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			c.logger.Error("Bad order confirmation payload", zap.Error(err))
			return nil
		}
		to = p.UserEmail
		subject, html = p.Render()
	case notify.KindShippingUpdate:
		var p notify.ShippingUpdatePayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			c.logger.Error("Bad shipping update payload", zap.Error(err))
			return nil
		}
		to = p.UserEmail
		subject, html = p.Render()
	case notify.KindLowStockAlert:
		var p notify.LowStockAlertPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			c.logger.Error("Bad low stock alert payload", zap.Error(err))
			return nil
		}
		to = c.adminEmail
		subject, html = p.Render()
	case notify.KindPaymentReceived:
		var p notify.PaymentReceivedPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			c.logger.Error("Bad payment received payload", zap.Error(err))
			return nil
		}
		to = p.UserEmail
		subject, html = p.Render()
	default:
		c.logger.Warn("Unknown notification kind", zap.String("kind", string(envelope.Kind)))
		return nil
	}

	if to == "" {
		c.logger.Warn("Notification has no recipient, dropping", zap.String("kind", string(envelope.Kind)))
		return nil
	}
	if err := c.mailer.Send(ctx, to, subject, html); err != nil {
		c.logger.Error("Failed to send notification email",
			zap.String("kind", string(envelope.Kind)),
			zap.String("to", to),
			zap.Error(err))
	}
	return nil
}
