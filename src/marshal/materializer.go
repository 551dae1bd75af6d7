package marshal

import (
	"mt5-bridge/src/logger"
	"mt5-bridge/src/models"
	"mt5-bridge/src/platform"
)

// -----------------------------------------------------------------------------
// Materializer converts native results into transport-safe value snapshots.
//
// The snapshot variant is chosen by the capability that produced the result,
// never by inspecting the record's shape. Every field is copied by value at
// materialization time; a record that does not satisfy its schema fails
// loudly, except bulk history batches where the bad record is skipped and the
// rest of the batch survives.
// -----------------------------------------------------------------------------

type Materializer struct {
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewMaterializer(log *logger.Logger) *Materializer {
	return &Materializer{Logger: log}
}

// -----------------------------------------------------------------------------
// Account
// -----------------------------------------------------------------------------

func (m *Materializer) Account(rec map[string]interface{}) (*models.MAccountSnapshot, error) {
	login, err := reqInt64(rec, "account", "login")
	if err != nil {
		return nil, err
	}
	balance, err := reqFloat(rec, "account", "balance")
	if err != nil {
		return nil, err
	}
	equity, err := reqFloat(rec, "account", "equity")
	if err != nil {
		return nil, err
	}
	margin, err := reqFloat(rec, "account", "margin")
	if err != nil {
		return nil, err
	}
	marginFree, err := reqFloat(rec, "account", "margin_free")
	if err != nil {
		return nil, err
	}
	leverage, err := reqInt64(rec, "account", "leverage")
	if err != nil {
		return nil, err
	}
	currency, err := reqString(rec, "account", "currency")
	if err != nil {
		return nil, err
	}
	tradeAllowed, err := reqBool(rec, "account", "trade_allowed")
	if err != nil {
		return nil, err
	}

	return &models.MAccountSnapshot{
		Login:        login,
		Balance:      balance,
		Equity:       equity,
		Margin:       margin,
		MarginFree:   marginFree,
		Leverage:     leverage,
		Currency:     currency,
		TradeAllowed: tradeAllowed,
	}, nil
}

// -----------------------------------------------------------------------------
// Positions (strict: any malformed record fails the call)
// -----------------------------------------------------------------------------

func (m *Materializer) Positions(recs []map[string]interface{}) ([]models.MPositionSnapshot, error) {
	out := make([]models.MPositionSnapshot, 0, len(recs))
	for _, rec := range recs {
		snap, err := m.position(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, nil
}

func (m *Materializer) position(rec map[string]interface{}) (*models.MPositionSnapshot, error) {
	ticket, err := reqInt64(rec, "position", "ticket")
	if err != nil {
		return nil, err
	}
	symbol, err := reqString(rec, "position", "symbol")
	if err != nil {
		return nil, err
	}
	rawSide, err := reqInt64(rec, "position", "type")
	if err != nil {
		return nil, err
	}
	side, ok := platform.SideFromNative(rawSide)
	if !ok {
		return nil, illTyped("position", "type")
	}
	volume, err := reqFloat(rec, "position", "volume")
	if err != nil {
		return nil, err
	}
	priceOpen, err := reqFloat(rec, "position", "price_open")
	if err != nil {
		return nil, err
	}
	priceCurrent, err := reqFloat(rec, "position", "price_current")
	if err != nil {
		return nil, err
	}
	sl, err := reqFloat(rec, "position", "sl")
	if err != nil {
		return nil, err
	}
	tp, err := reqFloat(rec, "position", "tp")
	if err != nil {
		return nil, err
	}
	profit, err := reqFloat(rec, "position", "profit")
	if err != nil {
		return nil, err
	}
	swap, err := reqFloat(rec, "position", "swap")
	if err != nil {
		return nil, err
	}
	magic, err := reqInt64(rec, "position", "magic")
	if err != nil {
		return nil, err
	}
	comment, err := reqString(rec, "position", "comment")
	if err != nil {
		return nil, err
	}
	openedAt, err := reqEpoch(rec, "position", "time")
	if err != nil {
		return nil, err
	}

	return &models.MPositionSnapshot{
		Ticket:       ticket,
		Symbol:       symbol,
		Side:         side,
		Volume:       volume,
		PriceOpen:    priceOpen,
		PriceCurrent: priceCurrent,
		SL:           sl,
		TP:           tp,
		Profit:       profit,
		Swap:         swap,
		Magic:        magic,
		Comment:      comment,
		OpenedAt:     openedAt,
	}, nil
}

// -----------------------------------------------------------------------------
// Orders (strict)
// -----------------------------------------------------------------------------

func (m *Materializer) Orders(recs []map[string]interface{}) ([]models.MOrderSnapshot, error) {
	out := make([]models.MOrderSnapshot, 0, len(recs))
	for _, rec := range recs {
		snap, err := m.order(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, nil
}

func (m *Materializer) order(rec map[string]interface{}) (*models.MOrderSnapshot, error) {
	ticket, err := reqInt64(rec, "order", "ticket")
	if err != nil {
		return nil, err
	}
	symbol, err := reqString(rec, "order", "symbol")
	if err != nil {
		return nil, err
	}
	rawType, err := reqInt64(rec, "order", "type")
	if err != nil {
		return nil, err
	}
	orderType, ok := platform.OrderTypeFromNative(rawType)
	if !ok {
		return nil, illTyped("order", "type")
	}
	volInitial, err := reqFloat(rec, "order", "volume_initial")
	if err != nil {
		return nil, err
	}
	volCurrent, err := reqFloat(rec, "order", "volume_current")
	if err != nil {
		return nil, err
	}
	priceOpen, err := reqFloat(rec, "order", "price_open")
	if err != nil {
		return nil, err
	}
	sl, err := reqFloat(rec, "order", "sl")
	if err != nil {
		return nil, err
	}
	tp, err := reqFloat(rec, "order", "tp")
	if err != nil {
		return nil, err
	}
	magic, err := reqInt64(rec, "order", "magic")
	if err != nil {
		return nil, err
	}
	comment, err := reqString(rec, "order", "comment")
	if err != nil {
		return nil, err
	}
	setupAt, err := reqEpoch(rec, "order", "time_setup")
	if err != nil {
		return nil, err
	}
	expiresAt, err := optEpoch(rec, "order", "time_expiration")
	if err != nil {
		return nil, err
	}

	return &models.MOrderSnapshot{
		Ticket:        ticket,
		Symbol:        symbol,
		Type:          orderType,
		VolumeInitial: volInitial,
		VolumeCurrent: volCurrent,
		PriceOpen:     priceOpen,
		SL:            sl,
		TP:            tp,
		Magic:         magic,
		Comment:       comment,
		SetupAt:       setupAt,
		ExpiresAt:     expiresAt,
	}, nil
}

// -----------------------------------------------------------------------------
// History (per-record skip: the terminal sparsely populates old records, a
// malformed one must not abort the batch)
// -----------------------------------------------------------------------------

func (m *Materializer) HistoryOrders(recs []map[string]interface{}) ([]models.MOrderSnapshot, int) {
	out := make([]models.MOrderSnapshot, 0, len(recs))
	skipped := 0
	for _, rec := range recs {
		snap, err := m.order(rec)
		if err != nil {
			skipped++
			m.Logger.Warning("history order skipped: %v", err)
			continue
		}
		out = append(out, *snap)
	}
	return out, skipped
}

// -----------------------------------------------------------------------------

func (m *Materializer) HistoryDeals(recs []map[string]interface{}) ([]models.MDealSnapshot, int) {
	out := make([]models.MDealSnapshot, 0, len(recs))
	skipped := 0
	for _, rec := range recs {
		snap, err := m.deal(rec)
		if err != nil {
			skipped++
			m.Logger.Warning("history deal skipped: %v", err)
			continue
		}
		out = append(out, *snap)
	}
	return out, skipped
}

func (m *Materializer) deal(rec map[string]interface{}) (*models.MDealSnapshot, error) {
	ticket, err := reqInt64(rec, "deal", "ticket")
	if err != nil {
		return nil, err
	}
	order, err := reqInt64(rec, "deal", "order")
	if err != nil {
		return nil, err
	}
	symbol, err := reqString(rec, "deal", "symbol")
	if err != nil {
		return nil, err
	}
	rawSide, err := reqInt64(rec, "deal", "type")
	if err != nil {
		return nil, err
	}
	side, ok := platform.SideFromNative(rawSide)
	if !ok {
		return nil, illTyped("deal", "type")
	}
	volume, err := reqFloat(rec, "deal", "volume")
	if err != nil {
		return nil, err
	}
	price, err := reqFloat(rec, "deal", "price")
	if err != nil {
		return nil, err
	}
	profit, err := reqFloat(rec, "deal", "profit")
	if err != nil {
		return nil, err
	}
	commission, err := reqFloat(rec, "deal", "commission")
	if err != nil {
		return nil, err
	}
	swap, err := reqFloat(rec, "deal", "swap")
	if err != nil {
		return nil, err
	}
	magic, err := reqInt64(rec, "deal", "magic")
	if err != nil {
		return nil, err
	}
	comment, err := reqString(rec, "deal", "comment")
	if err != nil {
		return nil, err
	}
	executedAt, err := reqEpoch(rec, "deal", "time")
	if err != nil {
		return nil, err
	}

	return &models.MDealSnapshot{
		Ticket:     ticket,
		Order:      order,
		Symbol:     symbol,
		Side:       side,
		Volume:     volume,
		Price:      price,
		Profit:     profit,
		Commission: commission,
		Swap:       swap,
		Magic:      magic,
		Comment:    comment,
		ExecutedAt: executedAt,
	}, nil
}

// -----------------------------------------------------------------------------
// Symbol / Tick
// -----------------------------------------------------------------------------

func (m *Materializer) Symbol(rec map[string]interface{}) (*models.MSymbolSnapshot, error) {
	name, err := reqString(rec, "symbol", "name")
	if err != nil {
		return nil, err
	}
	digits, err := reqInt64(rec, "symbol", "digits")
	if err != nil {
		return nil, err
	}
	point, err := reqFloat(rec, "symbol", "point")
	if err != nil {
		return nil, err
	}
	volumeMin, err := reqFloat(rec, "symbol", "volume_min")
	if err != nil {
		return nil, err
	}
	volumeMax, err := reqFloat(rec, "symbol", "volume_max")
	if err != nil {
		return nil, err
	}
	volumeStep, err := reqFloat(rec, "symbol", "volume_step")
	if err != nil {
		return nil, err
	}
	contractSize, err := reqFloat(rec, "symbol", "trade_contract_size")
	if err != nil {
		return nil, err
	}
	fillingFlags, err := reqInt64(rec, "symbol", "filling_mode")
	if err != nil {
		return nil, err
	}

	return &models.MSymbolSnapshot{
		Name:         name,
		Digits:       digits,
		Point:        point,
		VolumeMin:    volumeMin,
		VolumeMax:    volumeMax,
		VolumeStep:   volumeStep,
		ContractSize: contractSize,
		FillingFlags: fillingFlags,
	}, nil
}

// -----------------------------------------------------------------------------

func (m *Materializer) Tick(rec map[string]interface{}) (*models.MTickSnapshot, error) {
	t, err := reqEpoch(rec, "tick", "time")
	if err != nil {
		return nil, err
	}
	bid, err := reqFloat(rec, "tick", "bid")
	if err != nil {
		return nil, err
	}
	ask, err := reqFloat(rec, "tick", "ask")
	if err != nil {
		return nil, err
	}
	last, err := reqFloat(rec, "tick", "last")
	if err != nil {
		return nil, err
	}
	volume, err := reqFloat(rec, "tick", "volume")
	if err != nil {
		return nil, err
	}

	return &models.MTickSnapshot{
		Time:   t,
		Bid:    bid,
		Ask:    ask,
		Last:   last,
		Volume: volume,
	}, nil
}

// -----------------------------------------------------------------------------
// OrderResult
//
// A nil/absent native result still materializes: downstream consumers never
// branch on absence. Unreadable fields degrade to the sentinel values rather
// than failing, because the trade may already have executed on the terminal
// and hiding the partial result would be worse than an inexact one.
// -----------------------------------------------------------------------------

func (m *Materializer) OrderResult(rec map[string]interface{}) *models.MOrderResult {
	if rec == nil {
		return &models.MOrderResult{
			Retcode: models.RetcodeUnknownFailure,
			Comment: "native layer returned no result",
		}
	}

	res := &models.MOrderResult{Retcode: models.RetcodeUnknownFailure}
	if retcode, err := reqInt64(rec, "order_result", "retcode"); err == nil {
		res.Retcode = int32(retcode)
	}
	if order, err := reqInt64(rec, "order_result", "order"); err == nil {
		res.Order = order
	}
	if deal, err := reqInt64(rec, "order_result", "deal"); err == nil {
		res.Deal = deal
	}
	if comment, err := reqString(rec, "order_result", "comment"); err == nil {
		res.Comment = comment
	}
	return res
}
