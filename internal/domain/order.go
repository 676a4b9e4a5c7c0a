package domain

import (
	"errors"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

var (
	ErrInvalidOrderData        = errors.New("invalid order data")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

// fulfillmentRank orders the forward-only delivery sequence. Cancelled sits
// outside the sequence and is handled separately.
var fulfillmentRank = map[OrderStatus]int{
	OrderStatusPending:        0,
	OrderStatusConfirmed:      1,
	OrderStatusShipped:        2,
	OrderStatusOutForDelivery: 3,
	OrderStatusDelivered:      4,
}

type ShippingAddress struct {
	FullName string `json:"full_name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Country  string `json:"country"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// OrderLine snapshots the product at order time. UnitPrice and LineTotal are
// frozen here so later catalog price changes never alter an existing order.
type OrderLine struct {
	ProductID    string  `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductImage string  `json:"product_image"`
	Quantity     int     `json:"quantity"`
	Size         string  `json:"size"`
	Color        string  `json:"color"`
	UnitPrice    float64 `json:"unit_price"`
	LineTotal    float64 `json:"line_total"`
}

type TrackingEvent struct {
	Status      string    `json:"status"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

type Order struct {
	ID              string          `json:"id"`
	Reference       string          `json:"reference"`
	UserID          string          `json:"user_id"`
	UserEmail       string          `json:"user_email"`
	Lines           []OrderLine     `json:"items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	Subtotal        float64         `json:"subtotal"`
	ShippingFee     float64         `json:"shipping_fee"`
	Total           float64         `json:"total"`
	Status          OrderStatus     `json:"status"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	Notes           string          `json:"notes,omitempty"`
	Carrier         string          `json:"carrier,omitempty"`
	TrackingNumber  string          `json:"tracking_number,omitempty"`
	TrackingURL     string          `json:"tracking_url,omitempty"`
	TrackingHistory []TrackingEvent `json:"tracking_history"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewOrder builds a pending/pending order from priced lines. The subtotal is
// the exact sum of the line totals and the total carries no shipping fee.
func NewOrder(id, reference, userID, userEmail string, lines []OrderLine, addr ShippingAddress, paymentMethod, notes string) (*Order, error) {
	if id == "" || reference == "" || userID == "" || len(lines) == 0 {
		return nil, ErrInvalidOrderData
	}
	var subtotal float64
	for _, line := range lines {
		if line.Quantity <= 0 || line.UnitPrice < 0 {
			return nil, ErrInvalidOrderData
		}
		subtotal += line.LineTotal
	}
	now := time.Now()
	return &Order{
		ID:              id,
		Reference:       reference,
		UserID:          userID,
		UserEmail:       userEmail,
		Lines:           lines,
		ShippingAddress: addr,
		PaymentMethod:   paymentMethod,
		Subtotal:        subtotal,
		ShippingFee:     0,
		Total:           subtotal,
		Status:          OrderStatusPending,
		PaymentStatus:   PaymentStatusPending,
		Notes:           notes,
		TrackingHistory: []TrackingEvent{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// CanAdvanceTo reports whether the fulfillment status may move to next.
// Delivery statuses only move forward; cancellation is allowed from any
// non-delivered state.
func (o *Order) CanAdvanceTo(next OrderStatus) bool {
	if next == OrderStatusCancelled {
		return o.Status != OrderStatusDelivered && o.Status != OrderStatusCancelled
	}
	currentRank, ok := fulfillmentRank[o.Status]
	if !ok {
		return false
	}
	nextRank, ok := fulfillmentRank[next]
	if !ok {
		return false
	}
	return nextRank > currentRank
}

// AdvanceTo applies a fulfillment transition and appends a tracking event.
func (o *Order) AdvanceTo(next OrderStatus, event TrackingEvent) error {
	if !o.CanAdvanceTo(next) {
		return ErrInvalidStatusTransition
	}
	o.Status = next
	o.TrackingHistory = append(o.TrackingHistory, event)
	o.UpdatedAt = time.Now()
	return nil
}
