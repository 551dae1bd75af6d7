package models

// -----------------------------------------------------------------------------
// Wire Request / Response
// -----------------------------------------------------------------------------

// MRequest is one capability invocation sent by a client over its session.
type MRequest struct {
	ID         int64          `json:"id"`
	Capability string         `json:"capability"`
	Symbol     string         `json:"symbol,omitempty"`
	FromTS     int64          `json:"from_ts,omitempty"`
	ToTS       int64          `json:"to_ts,omitempty"`
	OrderType  OrderType      `json:"order_type,omitempty"`
	Volume     float64        `json:"volume,omitempty"`
	Price      float64        `json:"price,omitempty"`
	Order      *MOrderRequest `json:"order,omitempty"`
}

// -----------------------------------------------------------------------------

type MResponse struct {
	ID        int64         `json:"id"`
	OK        bool          `json:"ok"`
	Result    interface{}   `json:"result,omitempty"`
	Error     *MErrorDetail `json:"error,omitempty"`
	ElapsedMs float64       `json:"elapsed_ms"`
}

// -----------------------------------------------------------------------------

// MErrorDetail is the structured failure crossing the boundary. Code carries
// the native last-error code where one exists, otherwise 0.
type MErrorDetail struct {
	Kind    string `json:"kind"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}
