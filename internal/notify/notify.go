package notify

import (
	"encoding/json"
	"fmt"
	"strings"

	"storefront/internal/domain"
)

// Kind discriminates notification envelopes on the queue.
type Kind string

const (
	KindOrderConfirmation Kind = "order_confirmation"
	KindShippingUpdate    Kind = "shipping_update"
	KindLowStockAlert     Kind = "low_stock_alert"
	KindPaymentReceived   Kind = "payment_received"
)

// Envelope wraps a typed notification payload for transport through the
// outbox and Kafka. Delivery is at-least-once; consumers must tolerate
// duplicates.
type Envelope struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

type LinePayload struct {
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Size        string  `json:"size"`
	Color       string  `json:"color"`
	LineTotal   float64 `json:"line_total"`
}

type OrderConfirmationPayload struct {
	Reference string                 `json:"reference"`
	UserEmail string                 `json:"user_email"`
	Status    string                 `json:"status"`
	Total     float64                `json:"total"`
	Lines     []LinePayload          `json:"lines"`
	Address   domain.ShippingAddress `json:"address"`
}

type ShippingUpdatePayload struct {
	Reference      string `json:"reference"`
	UserEmail      string `json:"user_email"`
	Status         string `json:"status"`
	Carrier        string `json:"carrier,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	TrackingURL    string `json:"tracking_url,omitempty"`
}

type LowStockAlertPayload struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Stock     int    `json:"stock"`
}

type PaymentReceivedPayload struct {
	Reference string  `json:"reference"`
	UserEmail string  `json:"user_email"`
	Total     float64 `json:"total"`
}

func wrap(kind Kind, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}
	return json.Marshal(Envelope{Kind: kind, Payload: data})
}

func NewOrderConfirmation(order *domain.Order) ([]byte, error) {
	lines := make([]LinePayload, len(order.Lines))
	for i, l := range order.Lines {
		lines[i] = LinePayload{
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			Size:        l.Size,
			Color:       l.Color,
			LineTotal:   l.LineTotal,
		}
	}
	return wrap(KindOrderConfirmation, OrderConfirmationPayload{
		Reference: order.Reference,
		UserEmail: order.UserEmail,
		Status:    string(order.Status),
		Total:     order.Total,
		Lines:     lines,
		Address:   order.ShippingAddress,
	})
}

func NewShippingUpdate(order *domain.Order) ([]byte, error) {
	return wrap(KindShippingUpdate, ShippingUpdatePayload{
		Reference:      order.Reference,
		UserEmail:      order.UserEmail,
		Status:         string(order.Status),
		Carrier:        order.Carrier,
		TrackingNumber: order.TrackingNumber,
		TrackingURL:    order.TrackingURL,
	})
}

func NewLowStockAlert(product *domain.Product, newStock int) ([]byte, error) {
	return wrap(KindLowStockAlert, LowStockAlertPayload{
		ProductID: product.ID,
		Name:      product.Name,
		Category:  product.Category,
		Stock:     newStock,
	})
}

func NewPaymentReceived(order *domain.Order) ([]byte, error) {
	return wrap(KindPaymentReceived, PaymentReceivedPayload{
		Reference: order.Reference,
		UserEmail: order.UserEmail,
		Total:     order.Total,
	})
}

// Render formats an order confirmation email.
func (p OrderConfirmationPayload) Render() (subject, html string) {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Order Confirmation</h2>")
	fmt.Fprintf(&b, "<p><strong>Reference:</strong> %s<br><strong>Status:</strong> %s</p><ul>", p.Reference, strings.ToUpper(p.Status))
	for _, l := range p.Lines {
		fmt.Fprintf(&b, "<li>%s (%s/%s) x%d - ₦%.0f</li>", l.ProductName, l.Size, l.Color, l.Quantity, l.LineTotal)
	}
	fmt.Fprintf(&b, "</ul><p><strong>Total: ₦%.0f</strong></p>", p.Total)
	fmt.Fprintf(&b, "<p>%s<br>%s<br>%s, %s<br>%s</p>",
		p.Address.FullName, p.Address.Address, p.Address.City, p.Address.State, p.Address.Country)
	return fmt.Sprintf("Order Confirmed - %s", p.Reference), b.String()
}

func (p ShippingUpdatePayload) Render() (subject, html string) {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Shipping Update</h2><p>Your order <strong>%s</strong> status is now <strong>%s</strong>.</p>",
		p.Reference, strings.ToUpper(p.Status))
	if p.TrackingNumber != "" {
		fmt.Fprintf(&b, "<p>Tracking Number: %s<br>Carrier: %s</p>", p.TrackingNumber, p.Carrier)
	}
	if p.TrackingURL != "" {
		fmt.Fprintf(&b, "<p><a href=%q>Track Your Package</a></p>", p.TrackingURL)
	}
	return fmt.Sprintf("Shipping Update - Order %s", p.Reference), b.String()
}

func (p LowStockAlertPayload) Render() (subject, html string) {
	html = fmt.Sprintf(
		"<h2>Low Stock Alert</h2><p><strong>%s</strong>: only %d items remaining.</p><p>Product ID: %s<br>Category: %s</p>",
		p.Name, p.Stock, p.ProductID, p.Category)
	return fmt.Sprintf("Low Stock Alert - %s", p.Name), html
}

func (p PaymentReceivedPayload) Render() (subject, html string) {
	html = fmt.Sprintf(
		"<h2>Payment Received</h2><p>We have received your payment of ₦%.0f for order <strong>%s</strong>.</p>",
		p.Total, p.Reference)
	return fmt.Sprintf("Payment Received - %s", p.Reference), html
}
