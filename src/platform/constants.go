package platform

import (
	"mt5-bridge/src/models"
)

// -----------------------------------------------------------------------------
// Native terminal constants (numeric values as the terminal defines them).
// -----------------------------------------------------------------------------

const (
	TradeActionDeal    = 1
	TradeActionPending = 5
	TradeActionSLTP    = 6
	TradeActionModify  = 7
	TradeActionRemove  = 8
	TradeActionCloseBy = 10

	OrderTypeBuy       = 0
	OrderTypeSell      = 1
	OrderTypeBuyLimit  = 2
	OrderTypeSellLimit = 3
	OrderTypeBuyStop   = 4
	OrderTypeSellStop  = 5

	OrderFillingFOK    = 0
	OrderFillingIOC    = 1
	OrderFillingReturn = 2

	OrderTimeGTC       = 0
	OrderTimeDay       = 1
	OrderTimeSpecified = 2
)

// Trade retcodes
const (
	TradeRetcodeRequote       = 10004
	TradeRetcodeReject        = 10006
	TradeRetcodeDone          = 10009
	TradeRetcodeInvalid       = 10013
	TradeRetcodeInvalidVolume = 10014
	TradeRetcodeInvalidPrice  = 10015
	TradeRetcodeMarketClosed  = 10018
	TradeRetcodeNoMoney       = 10019
	TradeRetcodePositionClosed = 10036
)

// Native error codes from last_error
const (
	ErrSuccess        = 1
	ErrTerminalFailed = -10003
	ErrNoIPC          = -10004
)

// -----------------------------------------------------------------------------
// Wire enum -> native numeric mappings
// -----------------------------------------------------------------------------

func NativeAction(a models.TradeAction) (int, bool) {
	switch a {
	case models.ActionMarketDeal:
		return TradeActionDeal, true
	case models.ActionPending:
		return TradeActionPending, true
	case models.ActionModify:
		return TradeActionModify, true
	case models.ActionRemove:
		return TradeActionRemove, true
	case models.ActionCloseBy:
		return TradeActionCloseBy, true
	}
	return 0, false
}

// -----------------------------------------------------------------------------

func NativeOrderType(t models.OrderType) (int, bool) {
	switch t {
	case models.OrderTypeBuy:
		return OrderTypeBuy, true
	case models.OrderTypeSell:
		return OrderTypeSell, true
	case models.OrderTypeBuyLimit:
		return OrderTypeBuyLimit, true
	case models.OrderTypeSellLimit:
		return OrderTypeSellLimit, true
	case models.OrderTypeBuyStop:
		return OrderTypeBuyStop, true
	case models.OrderTypeSellStop:
		return OrderTypeSellStop, true
	}
	return 0, false
}

// -----------------------------------------------------------------------------

// SideFromNative converts a native position/deal type (0=buy, 1=sell).
func SideFromNative(n int64) (models.OrderType, bool) {
	switch n {
	case OrderTypeBuy:
		return models.OrderTypeBuy, true
	case OrderTypeSell:
		return models.OrderTypeSell, true
	}
	return "", false
}

// -----------------------------------------------------------------------------

// OrderTypeFromNative covers the full pending/market order type range.
func OrderTypeFromNative(n int64) (models.OrderType, bool) {
	switch n {
	case OrderTypeBuy:
		return models.OrderTypeBuy, true
	case OrderTypeSell:
		return models.OrderTypeSell, true
	case OrderTypeBuyLimit:
		return models.OrderTypeBuyLimit, true
	case OrderTypeSellLimit:
		return models.OrderTypeSellLimit, true
	case OrderTypeBuyStop:
		return models.OrderTypeBuyStop, true
	case OrderTypeSellStop:
		return models.OrderTypeSellStop, true
	}
	return "", false
}

// -----------------------------------------------------------------------------

func NativeFilling(f models.FillingMode) (int, bool) {
	switch f {
	case models.FillingFOK:
		return OrderFillingFOK, true
	case models.FillingIOC:
		return OrderFillingIOC, true
	case models.FillingReturn:
		return OrderFillingReturn, true
	}
	return 0, false
}

// -----------------------------------------------------------------------------

func NativeTimeMode(t models.TimeMode) (int, bool) {
	switch t {
	case models.TimeGTC:
		return OrderTimeGTC, true
	case models.TimeSpecified:
		return OrderTimeSpecified, true
	}
	return 0, false
}

// -----------------------------------------------------------------------------
// NativeTradeRequest builds the native request map from a validated
// MOrderRequest. Unset options stay absent so the terminal applies its own
// defaults. skewSeconds shifts the expiration for deployments whose terminal
// clock is offset from the bridge host.
// -----------------------------------------------------------------------------

func NativeTradeRequest(o *models.MOrderRequest, skewSeconds int64) map[string]interface{} {
	req := make(map[string]interface{})

	if action, ok := NativeAction(o.Action); ok {
		req["action"] = action
	}
	if o.Symbol != "" {
		req["symbol"] = o.Symbol
	}
	if o.Volume > 0 {
		req["volume"] = o.Volume
	}
	if t, ok := NativeOrderType(o.OrderType); ok {
		req["type"] = t
	}
	if o.Price > 0 {
		req["price"] = o.Price
	}
	if o.SL > 0 {
		req["sl"] = o.SL
	}
	if o.TP > 0 {
		req["tp"] = o.TP
	}
	if o.Magic != 0 {
		req["magic"] = o.Magic
	}
	if o.Comment != "" {
		req["comment"] = o.Comment
	}
	if f, ok := NativeFilling(o.FillingMode); ok {
		req["type_filling"] = f
	}
	if tm, ok := NativeTimeMode(o.TimeMode); ok {
		req["type_time"] = tm
	}
	if o.Expiration > 0 {
		req["expiration"] = o.Expiration + skewSeconds
	}
	if o.Position > 0 {
		req["position"] = o.Position
	}
	if o.Order > 0 {
		req["order"] = o.Order
	}

	return req
}

// -----------------------------------------------------------------------------

// RetcodeSuccess reports whether a trade retcode means the request was done.
func RetcodeSuccess(retcode int32) bool {
	return retcode == TradeRetcodeDone
}
