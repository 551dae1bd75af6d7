package models

// -----------------------------------------------------------------------------
// Trade Request Enums (wire representation)
// -----------------------------------------------------------------------------

type TradeAction string

const (
	ActionMarketDeal TradeAction = "MARKET_DEAL"
	ActionPending    TradeAction = "PENDING"
	ActionModify     TradeAction = "MODIFY"
	ActionRemove     TradeAction = "REMOVE"
	ActionCloseBy    TradeAction = "CLOSE_BY"
)

func (a TradeAction) Valid() bool {
	switch a {
	case ActionMarketDeal, ActionPending, ActionModify, ActionRemove, ActionCloseBy:
		return true
	}
	return false
}

// -----------------------------------------------------------------------------

type OrderType string

const (
	OrderTypeBuy       OrderType = "BUY"
	OrderTypeSell      OrderType = "SELL"
	OrderTypeBuyLimit  OrderType = "BUY_LIMIT"
	OrderTypeSellLimit OrderType = "SELL_LIMIT"
	OrderTypeBuyStop   OrderType = "BUY_STOP"
	OrderTypeSellStop  OrderType = "SELL_STOP"
)

func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeBuy, OrderTypeSell, OrderTypeBuyLimit, OrderTypeSellLimit,
		OrderTypeBuyStop, OrderTypeSellStop:
		return true
	}
	return false
}

// IsPending reports whether the type needs an explicit entry price.
func (t OrderType) IsPending() bool {
	switch t {
	case OrderTypeBuyLimit, OrderTypeSellLimit, OrderTypeBuyStop, OrderTypeSellStop:
		return true
	}
	return false
}

// -----------------------------------------------------------------------------

type FillingMode string

const (
	FillingFOK    FillingMode = "FOK"
	FillingIOC    FillingMode = "IOC"
	FillingReturn FillingMode = "RETURN"
)

func (f FillingMode) Valid() bool {
	switch f {
	case FillingFOK, FillingIOC, FillingReturn:
		return true
	}
	return false
}

// -----------------------------------------------------------------------------

type TimeMode string

const (
	TimeGTC       TimeMode = "GTC"
	TimeSpecified TimeMode = "SPECIFIED"
)

func (t TimeMode) Valid() bool {
	switch t {
	case TimeGTC, TimeSpecified:
		return true
	}
	return false
}

// -----------------------------------------------------------------------------
// MOrderRequest is the recognized-option set for submit_order.
// Unset fields keep platform-neutral defaults (GTC, no sl/tp, empty comment).
// -----------------------------------------------------------------------------

type MOrderRequest struct {
	Action      TradeAction `json:"action"`
	Symbol      string      `json:"symbol,omitempty"`
	Volume      float64     `json:"volume,omitempty"`
	OrderType   OrderType   `json:"order_type,omitempty"`
	Price       float64     `json:"price,omitempty"`
	SL          float64     `json:"sl,omitempty"`
	TP          float64     `json:"tp,omitempty"`
	Magic       int64       `json:"magic,omitempty"`
	Comment     string      `json:"comment,omitempty"`
	FillingMode FillingMode `json:"filling_mode,omitempty"`
	TimeMode    TimeMode    `json:"time_mode,omitempty"`
	Expiration  int64       `json:"expiration,omitempty"` // absolute epoch seconds
	Position    int64       `json:"position,omitempty"`   // ticket for closes
	Order       int64       `json:"order,omitempty"`      // ticket for modify/remove
}
