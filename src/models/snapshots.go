package models

// -----------------------------------------------------------------------------
// Result Snapshots (Boundary-Safe, Value-Only)
//
// Every field is a resolved scalar. Time fields are integer epoch seconds UTC.
// Snapshots never hold references back into the native terminal.
// -----------------------------------------------------------------------------

type MAccountSnapshot struct {
	Login        int64   `json:"login"`
	Balance      float64 `json:"balance"`
	Equity       float64 `json:"equity"`
	Margin       float64 `json:"margin"`
	MarginFree   float64 `json:"margin_free"`
	Leverage     int64   `json:"leverage"`
	Currency     string  `json:"currency"`
	TradeAllowed bool    `json:"trade_allowed"`
}

// -----------------------------------------------------------------------------

type MPositionSnapshot struct {
	Ticket       int64     `json:"ticket"`
	Symbol       string    `json:"symbol"`
	Side         OrderType `json:"side"` // BUY or SELL
	Volume       float64   `json:"volume"`
	PriceOpen    float64   `json:"price_open"`
	PriceCurrent float64   `json:"price_current"`
	SL           float64   `json:"sl"`
	TP           float64   `json:"tp"`
	Profit       float64   `json:"profit"`
	Swap         float64   `json:"swap"`
	Magic        int64     `json:"magic"`
	Comment      string    `json:"comment"`
	OpenedAt     int64     `json:"opened_at"`
}

// -----------------------------------------------------------------------------

type MOrderSnapshot struct {
	Ticket        int64     `json:"ticket"`
	Symbol        string    `json:"symbol"`
	Type          OrderType `json:"type"`
	VolumeInitial float64   `json:"volume_initial"`
	VolumeCurrent float64   `json:"volume_current"`
	PriceOpen     float64   `json:"price_open"`
	SL            float64   `json:"sl"`
	TP            float64   `json:"tp"`
	Magic         int64     `json:"magic"`
	Comment       string    `json:"comment"`
	SetupAt       int64     `json:"setup_at"`
	ExpiresAt     int64     `json:"expires_at"` // 0 = GTC
}

// -----------------------------------------------------------------------------

type MDealSnapshot struct {
	Ticket     int64     `json:"ticket"`
	Order      int64     `json:"order"`
	Symbol     string    `json:"symbol"`
	Side       OrderType `json:"side"`
	Volume     float64   `json:"volume"`
	Price      float64   `json:"price"`
	Profit     float64   `json:"profit"`
	Commission float64   `json:"commission"`
	Swap       float64   `json:"swap"`
	Magic      int64     `json:"magic"`
	Comment    string    `json:"comment"`
	ExecutedAt int64     `json:"executed_at"`
}

// -----------------------------------------------------------------------------

type MSymbolSnapshot struct {
	Name         string  `json:"name"`
	Digits       int64   `json:"digits"`
	Point        float64 `json:"point"`
	VolumeMin    float64 `json:"volume_min"`
	VolumeMax    float64 `json:"volume_max"`
	VolumeStep   float64 `json:"volume_step"`
	ContractSize float64 `json:"trade_contract_size"`
	FillingFlags int64   `json:"filling_flags"` // native bitmask: 1=FOK 2=IOC
}

// -----------------------------------------------------------------------------

type MTickSnapshot struct {
	Time   int64   `json:"time"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Last   float64 `json:"last"`
	Volume float64 `json:"volume"`
}

// -----------------------------------------------------------------------------
// MOrderResult is the trade-submission outcome. An absent native result
// materializes to RetcodeUnknownFailure so callers never branch on null.
// -----------------------------------------------------------------------------

type MOrderResult struct {
	Retcode int32  `json:"retcode"`
	Order   int64  `json:"order"` // 0 if none
	Deal    int64  `json:"deal"`  // 0 if none
	Comment string `json:"comment"`
}

// RetcodeUnknownFailure sits outside the native retcode space (all >= 10000).
const RetcodeUnknownFailure int32 = -1
