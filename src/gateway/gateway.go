package gateway

import (
	"sync"

	"mt5-bridge/src/helpers"
	"mt5-bridge/src/interfaces"
	"mt5-bridge/src/logger"
	"mt5-bridge/src/marshal"
	"mt5-bridge/src/metrics"
	"mt5-bridge/src/models"
	"mt5-bridge/src/platform"
)

// -----------------------------------------------------------------------------
// ProxyGateway resolves capability names against the native terminal and
// hands raw results to the Materializer.
//
// The capability surface is a static table, never dynamic attribute lookup
// over the native object graph. The terminal handle is non-reentrant, so
// every native interaction runs under nativeMu; throughput is bounded by the
// terminal, not the bridge. Failed native calls are never retried here.
// -----------------------------------------------------------------------------

type handler func(g *ProxyGateway, req *models.MRequest) (interface{}, error)

type ProxyGateway struct {
	Platform interfaces.ITradingPlatform
	Marshal  *marshal.Materializer
	Logger   *logger.Logger
	Metrics  *metrics.MetricsState

	nativeMu    sync.Mutex
	initialized bool
	skewSeconds int64

	table map[string]handler
}

// -----------------------------------------------------------------------------

func NewProxyGateway(p interfaces.ITradingPlatform, m *marshal.Materializer, log *logger.Logger, ms *metrics.MetricsState, cfg *models.MConfig) *ProxyGateway {
	g := &ProxyGateway{
		Platform:    p,
		Marshal:     m,
		Logger:      log,
		Metrics:     ms,
		skewSeconds: cfg.Platform.ExpirationSkewSeconds,
	}
	g.table = map[string]handler{
		"get_account":        (*ProxyGateway).getAccount,
		"get_positions":      (*ProxyGateway).getPositions,
		"get_orders":         (*ProxyGateway).getOrders,
		"get_history_orders": (*ProxyGateway).getHistoryOrders,
		"get_history_deals":  (*ProxyGateway).getHistoryDeals,
		"get_symbol_info":    (*ProxyGateway).getSymbolInfo,
		"get_tick":           (*ProxyGateway).getTick,
		"calc_margin":        (*ProxyGateway).calcMargin,
		"submit_order":       (*ProxyGateway).submitOrder,
	}
	return g
}

// -----------------------------------------------------------------------------

// Invoke executes one capability request and returns a snapshot (or sequence
// of snapshots) or a taxonomy error. Validation failures return before any
// native call is attempted.
func (g *ProxyGateway) Invoke(req *models.MRequest) (interface{}, error) {
	h, ok := g.table[req.Capability]
	if !ok {
		return nil, helpers.NewValidationError("unknown capability %q", req.Capability)
	}
	return h(g, req)
}

// -----------------------------------------------------------------------------

// Connected reports whether the native terminal has been initialized. Console
// reads this without touching the native handle.
func (g *ProxyGateway) Connected() bool {
	g.nativeMu.Lock()
	defer g.nativeMu.Unlock()
	return g.initialized
}

// -----------------------------------------------------------------------------

// ensureInitialized attempts one native initialization if none has succeeded
// yet. Callers hold nativeMu.
func (g *ProxyGateway) ensureInitialized() error {
	if g.initialized {
		return nil
	}
	if g.Platform.Initialize() {
		g.initialized = true
		g.Logger.Info("native terminal initialized")
		return nil
	}
	code, msg := g.Platform.LastError()
	return helpers.NewPlatformUnavailable(code, "terminal initialization failed: %s", msg)
}

// -----------------------------------------------------------------------------
// Query capabilities
// -----------------------------------------------------------------------------

func (g *ProxyGateway) getAccount(req *models.MRequest) (interface{}, error) {
	g.nativeMu.Lock()
	if err := g.ensureInitialized(); err != nil {
		g.nativeMu.Unlock()
		return nil, err
	}
	rec := g.Platform.AccountInfo()
	code, msg := g.lastErrorIfNil(rec == nil)
	g.nativeMu.Unlock()

	if rec == nil {
		return nil, helpers.NewPlatformUnavailable(code, "account_info failed: %s", msg)
	}
	return g.Marshal.Account(rec)
}

// -----------------------------------------------------------------------------

func (g *ProxyGateway) getPositions(req *models.MRequest) (interface{}, error) {
	g.nativeMu.Lock()
	if err := g.ensureInitialized(); err != nil {
		g.nativeMu.Unlock()
		return nil, err
	}
	recs := g.Platform.PositionsGet(req.Symbol)
	code, msg := g.lastErrorIfNil(recs == nil)
	g.nativeMu.Unlock()

	if recs == nil {
		return nil, helpers.NewPlatformUnavailable(code, "positions_get failed: %s", msg)
	}
	return g.Marshal.Positions(recs)
}

// -----------------------------------------------------------------------------

func (g *ProxyGateway) getOrders(req *models.MRequest) (interface{}, error) {
	g.nativeMu.Lock()
	if err := g.ensureInitialized(); err != nil {
		g.nativeMu.Unlock()
		return nil, err
	}
	recs := g.Platform.OrdersGet(req.Symbol)
	code, msg := g.lastErrorIfNil(recs == nil)
	g.nativeMu.Unlock()

	if recs == nil {
		return nil, helpers.NewPlatformUnavailable(code, "orders_get failed: %s", msg)
	}
	return g.Marshal.Orders(recs)
}

// -----------------------------------------------------------------------------

func (g *ProxyGateway) getHistoryOrders(req *models.MRequest) (interface{}, error) {
	if err := validateRange(req); err != nil {
		return nil, err
	}

	g.nativeMu.Lock()
	if err := g.ensureInitialized(); err != nil {
		g.nativeMu.Unlock()
		return nil, err
	}
	recs := g.Platform.HistoryOrdersGet(req.FromTS, req.ToTS)
	code, msg := g.lastErrorIfNil(recs == nil)
	g.nativeMu.Unlock()

	if recs == nil {
		return nil, helpers.NewPlatformUnavailable(code, "history_orders_get failed: %s", msg)
	}
	snaps, skipped := g.Marshal.HistoryOrders(recs)
	if skipped > 0 {
		g.Metrics.Log(models.SevWarn, "get_history_orders: skipped %d malformed records", skipped)
	}
	return snaps, nil
}

// -----------------------------------------------------------------------------

func (g *ProxyGateway) getHistoryDeals(req *models.MRequest) (interface{}, error) {
	if err := validateRange(req); err != nil {
		return nil, err
	}

	g.nativeMu.Lock()
	if err := g.ensureInitialized(); err != nil {
		g.nativeMu.Unlock()
		return nil, err
	}
	recs := g.Platform.HistoryDealsGet(req.FromTS, req.ToTS)
	code, msg := g.lastErrorIfNil(recs == nil)
	g.nativeMu.Unlock()

	if recs == nil {
		return nil, helpers.NewPlatformUnavailable(code, "history_deals_get failed: %s", msg)
	}
	snaps, skipped := g.Marshal.HistoryDeals(recs)
	if skipped > 0 {
		g.Metrics.Log(models.SevWarn, "get_history_deals: skipped %d malformed records", skipped)
	}
	return snaps, nil
}

// -----------------------------------------------------------------------------

func (g *ProxyGateway) getSymbolInfo(req *models.MRequest) (interface{}, error) {
	if req.Symbol == "" {
		return nil, helpers.NewValidationError("get_symbol_info: symbol is required")
	}

	g.nativeMu.Lock()
	if err := g.ensureInitialized(); err != nil {
		g.nativeMu.Unlock()
		return nil, err
	}
	rec := g.Platform.SymbolInfo(req.Symbol)
	code, msg := g.lastErrorIfNil(rec == nil)
	g.nativeMu.Unlock()

	if rec == nil {
		return nil, helpers.NewPlatformUnavailable(code, "symbol_info failed: %s", msg)
	}
	return g.Marshal.Symbol(rec)
}

// -----------------------------------------------------------------------------

func (g *ProxyGateway) getTick(req *models.MRequest) (interface{}, error) {
	if req.Symbol == "" {
		return nil, helpers.NewValidationError("get_tick: symbol is required")
	}

	g.nativeMu.Lock()
	if err := g.ensureInitialized(); err != nil {
		g.nativeMu.Unlock()
		return nil, err
	}
	rec := g.Platform.SymbolInfoTick(req.Symbol)
	code, msg := g.lastErrorIfNil(rec == nil)
	g.nativeMu.Unlock()

	if rec == nil {
		return nil, helpers.NewPlatformUnavailable(code, "symbol_info_tick failed: %s", msg)
	}
	return g.Marshal.Tick(rec)
}

// -----------------------------------------------------------------------------
// Command capabilities
// -----------------------------------------------------------------------------

func (g *ProxyGateway) calcMargin(req *models.MRequest) (interface{}, error) {
	if req.Symbol == "" {
		return nil, helpers.NewValidationError("calc_margin: symbol is required")
	}
	if req.Volume <= 0 {
		return nil, helpers.NewValidationError("calc_margin: volume must be positive")
	}
	if req.Price <= 0 {
		return nil, helpers.NewValidationError("calc_margin: price must be positive")
	}
	orderType, ok := platform.NativeOrderType(req.OrderType)
	if !ok {
		return nil, helpers.NewValidationError("calc_margin: unknown order type %q", req.OrderType)
	}

	g.nativeMu.Lock()
	if err := g.ensureInitialized(); err != nil {
		g.nativeMu.Unlock()
		return nil, err
	}
	margin, ok := g.Platform.OrderCalcMargin(orderType, req.Symbol, req.Volume, req.Price)
	code, msg := g.lastErrorIfNil(!ok)
	g.nativeMu.Unlock()

	if !ok {
		return nil, helpers.NewPlatformUnavailable(code, "order_calc_margin failed: %s", msg)
	}
	return margin, nil
}

// -----------------------------------------------------------------------------

// submitOrder is the highest-risk capability: malformed requests are rejected
// locally before the terminal ever sees them.
func (g *ProxyGateway) submitOrder(req *models.MRequest) (interface{}, error) {
	if req.Order == nil {
		return nil, helpers.NewValidationError("submit_order: order payload is required")
	}
	if err := ValidateOrderRequest(req.Order); err != nil {
		return nil, err
	}
	native := platform.NativeTradeRequest(req.Order, g.skewSeconds)

	g.nativeMu.Lock()
	if err := g.ensureInitialized(); err != nil {
		g.nativeMu.Unlock()
		return nil, err
	}
	rec := g.Platform.OrderSend(native)
	g.nativeMu.Unlock()

	// Always a value, even when the terminal produced nothing.
	return g.Marshal.OrderResult(rec), nil
}

// -----------------------------------------------------------------------------

// lastErrorIfNil fetches the native last-error pair while nativeMu is still
// held, so the detail belongs to the failed call and not a later one.
func (g *ProxyGateway) lastErrorIfNil(failed bool) (int, string) {
	if !failed {
		return 0, ""
	}
	return g.Platform.LastError()
}

// -----------------------------------------------------------------------------

func validateRange(req *models.MRequest) error {
	if req.ToTS <= 0 {
		return helpers.NewValidationError("%s: to_ts is required", req.Capability)
	}
	if req.FromTS > req.ToTS {
		return helpers.NewValidationError("%s: from_ts is after to_ts", req.Capability)
	}
	return nil
}
