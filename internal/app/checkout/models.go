package checkout

import (
	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/repository/order_repo"
)

type CreateOrderRequest struct {
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
	Items           []domain.CartLine      `json:"items"`
	Notes           string                 `json:"notes,omitempty"`
}

type CreateOrderResponse struct {
	OrderID       string              `json:"order_id"`
	Reference     string              `json:"reference"`
	Total         float64             `json:"total"`
	PaymentMethod string              `json:"payment_method"`
	PaymentInfo   *payment.Descriptor `json:"payment_info"`
}

type StatusUpdateRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	TrackingURL    string `json:"tracking_url,omitempty"`
	Carrier        string `json:"carrier,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

type TrackingResponse struct {
	Status          domain.OrderStatus     `json:"status"`
	Carrier         string                 `json:"carrier,omitempty"`
	TrackingNumber  string                 `json:"tracking_number,omitempty"`
	TrackingURL     string                 `json:"tracking_url,omitempty"`
	TrackingHistory []domain.TrackingEvent `json:"tracking_history"`
}

type AnalyticsResponse struct {
	order_repo.AnalyticsSummary
	RecentOrders []*domain.Order `json:"recent_orders"`
}
