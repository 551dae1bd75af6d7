package sim

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"mt5-bridge/src/platform"
)

// -----------------------------------------------------------------------------
// SimTerminal is an in-memory stand-in for the native trading terminal. It
// keeps a small account/position/order book and answers with the same
// loosely-typed attribute maps the real handle produces, so the gateway and
// materializer run unchanged against it. Used by tests and simulated runs.
// -----------------------------------------------------------------------------

type SimTerminal struct {
	mu          sync.Mutex
	initialized bool

	// FailInit forces Initialize to fail with the configured last error.
	FailInit bool
	// CallDelay is applied to every native call, for lock-contention tests.
	CallDelay time.Duration

	errCode int
	errMsg  string

	login      int64
	balance    float64
	equity     float64
	nextTicket int64
	calls      int64

	quotes        map[string]*simQuote
	positions     []map[string]interface{}
	orders        []map[string]interface{}
	historyOrders []map[string]interface{}
	historyDeals  []map[string]interface{}
}

type simQuote struct {
	bid, ask float64
	digits   int64
	point    float64
}

// -----------------------------------------------------------------------------

func NewSimTerminal(login int64) *SimTerminal {
	return &SimTerminal{
		login:      login,
		balance:    10000.0,
		equity:     10000.0,
		nextTicket: 100000,
		quotes: map[string]*simQuote{
			"EURUSD": {bid: 1.08655, ask: 1.08671, digits: 5, point: 0.00001},
			"USDJPY": {bid: 154.212, ask: 154.231, digits: 3, point: 0.001},
		},
		positions:     []map[string]interface{}{},
		orders:        []map[string]interface{}{},
		historyOrders: []map[string]interface{}{},
		historyDeals:  []map[string]interface{}{},
	}
}

// -----------------------------------------------------------------------------

// CallCount returns how many native calls have been made. Tests use this to
// prove that validation failures never reach the terminal.
func (s *SimTerminal) CallCount() int64 {
	return atomic.LoadInt64(&s.calls)
}

func (s *SimTerminal) countCall() {
	atomic.AddInt64(&s.calls, 1)
	if s.CallDelay > 0 {
		time.Sleep(s.CallDelay)
	}
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

func (s *SimTerminal) Initialize() bool {
	s.countCall()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailInit {
		s.errCode = platform.ErrNoIPC
		s.errMsg = "No IPC connection"
		return false
	}
	s.initialized = true
	s.errCode = platform.ErrSuccess
	s.errMsg = "Success"
	return true
}

func (s *SimTerminal) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = false
}

func (s *SimTerminal) LastError() (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errCode, s.errMsg
}

// -----------------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------------

func (s *SimTerminal) AccountInfo() map[string]interface{} {
	s.countCall()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.failNotInitialized()
		return nil
	}
	return map[string]interface{}{
		"login":         s.login,
		"balance":       s.balance,
		"equity":        s.equity,
		"margin":        0.0,
		"margin_free":   s.equity,
		"leverage":      int64(100),
		"currency":      "USD",
		"trade_allowed": true,
	}
}

// -----------------------------------------------------------------------------

func (s *SimTerminal) PositionsGet(symbol string) []map[string]interface{} {
	s.countCall()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.failNotInitialized()
		return nil
	}
	return filterBySymbol(s.positions, symbol)
}

func (s *SimTerminal) OrdersGet(symbol string) []map[string]interface{} {
	s.countCall()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.failNotInitialized()
		return nil
	}
	return filterBySymbol(s.orders, symbol)
}

// -----------------------------------------------------------------------------

func (s *SimTerminal) HistoryOrdersGet(fromTS, toTS int64) []map[string]interface{} {
	s.countCall()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.failNotInitialized()
		return nil
	}
	return filterByTime(s.historyOrders, "time_setup", fromTS, toTS)
}

func (s *SimTerminal) HistoryDealsGet(fromTS, toTS int64) []map[string]interface{} {
	s.countCall()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.failNotInitialized()
		return nil
	}
	return filterByTime(s.historyDeals, "time", fromTS, toTS)
}

// -----------------------------------------------------------------------------

func (s *SimTerminal) SymbolInfo(symbol string) map[string]interface{} {
	s.countCall()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.failNotInitialized()
		return nil
	}
	q, ok := s.quotes[symbol]
	if !ok {
		s.errCode = platform.ErrTerminalFailed
		s.errMsg = fmt.Sprintf("Unknown symbol %q", symbol)
		return nil
	}
	return map[string]interface{}{
		"name":                symbol,
		"digits":              q.digits,
		"point":               q.point,
		"volume_min":          0.01,
		"volume_max":          100.0,
		"volume_step":         0.01,
		"trade_contract_size": 100000.0,
		"filling_mode":        int64(3), // FOK + IOC
	}
}

func (s *SimTerminal) SymbolInfoTick(symbol string) map[string]interface{} {
	s.countCall()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.failNotInitialized()
		return nil
	}
	q, ok := s.quotes[symbol]
	if !ok {
		s.errCode = platform.ErrTerminalFailed
		s.errMsg = fmt.Sprintf("Unknown symbol %q", symbol)
		return nil
	}
	return map[string]interface{}{
		"time":   time.Now().Unix(),
		"bid":    q.bid,
		"ask":    q.ask,
		"last":   q.bid,
		"volume": 0.0,
	}
}

// -----------------------------------------------------------------------------
// Commands
// -----------------------------------------------------------------------------

func (s *SimTerminal) OrderCalcMargin(orderType int, symbol string, volume, price float64) (float64, bool) {
	s.countCall()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.failNotInitialized()
		return 0, false
	}
	if _, ok := s.quotes[symbol]; !ok || volume <= 0 || price <= 0 {
		s.errCode = platform.ErrTerminalFailed
		s.errMsg = "Invalid margin request"
		return 0, false
	}
	// leverage 1:100, contract size 100000
	return volume * 100000.0 * price / 100.0, true
}

// -----------------------------------------------------------------------------

func (s *SimTerminal) OrderSend(request map[string]interface{}) map[string]interface{} {
	s.countCall()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.failNotInitialized()
		return nil
	}

	action, _ := request["action"].(int)
	switch action {
	case platform.TradeActionDeal:
		return s.executeDeal(request)
	case platform.TradeActionPending:
		return s.placePending(request)
	case platform.TradeActionModify:
		return s.modifyOrder(request)
	case platform.TradeActionRemove:
		return s.removeOrder(request)
	case platform.TradeActionCloseBy:
		return s.closeBy(request)
	}
	return result(platform.TradeRetcodeInvalid, 0, 0, "Unsupported action")
}

// -----------------------------------------------------------------------------

func (s *SimTerminal) executeDeal(request map[string]interface{}) map[string]interface{} {
	symbol, _ := request["symbol"].(string)
	volume := asFloat(request["volume"])
	q, known := s.quotes[symbol]
	if !known {
		return result(platform.TradeRetcodeInvalid, 0, 0, "Invalid request")
	}
	if volume <= 0 {
		return result(platform.TradeRetcodeInvalidVolume, 0, 0, "Invalid volume")
	}

	orderType, _ := request["type"].(int)
	price := q.ask
	if orderType == platform.OrderTypeSell {
		price = q.bid
	}

	if posTicket, ok := request["position"]; ok {
		// close against an existing position
		ticket := asInt64(posTicket)
		idx := indexByTicket(s.positions, ticket)
		if idx < 0 {
			return result(platform.TradeRetcodePositionClosed, 0, 0, "Position not found")
		}
		pos := s.positions[idx]
		s.positions = append(s.positions[:idx], s.positions[idx+1:]...)

		dealTicket := s.allocTicket()
		s.historyDeals = append(s.historyDeals, map[string]interface{}{
			"ticket":     dealTicket,
			"order":      s.allocTicket(),
			"symbol":     symbol,
			"type":       int64(orderType),
			"volume":     volume,
			"price":      price,
			"profit":     asFloat(pos["profit"]),
			"commission": 0.0,
			"swap":       asFloat(pos["swap"]),
			"magic":      asInt64(request["magic"]),
			"comment":    str(request["comment"]),
			"time":       time.Now().Unix(),
		})
		return result(platform.TradeRetcodeDone, 0, dealTicket, "Request executed")
	}

	orderTicket := s.allocTicket()
	dealTicket := s.allocTicket()
	posTicket := s.allocTicket()

	s.positions = append(s.positions, map[string]interface{}{
		"ticket":        posTicket,
		"symbol":        symbol,
		"type":          int64(orderType),
		"volume":        volume,
		"price_open":    price,
		"price_current": price,
		"sl":            asFloat(request["sl"]),
		"tp":            asFloat(request["tp"]),
		"profit":        0.0,
		"swap":          0.0,
		"magic":         asInt64(request["magic"]),
		"comment":       str(request["comment"]),
		"time":          time.Now().Unix(),
	})
	s.historyDeals = append(s.historyDeals, map[string]interface{}{
		"ticket":     dealTicket,
		"order":      orderTicket,
		"symbol":     symbol,
		"type":       int64(orderType),
		"volume":     volume,
		"price":      price,
		"profit":     0.0,
		"commission": 0.0,
		"swap":       0.0,
		"magic":      asInt64(request["magic"]),
		"comment":    str(request["comment"]),
		"time":       time.Now().Unix(),
	})
	return result(platform.TradeRetcodeDone, orderTicket, dealTicket, "Request executed")
}

// -----------------------------------------------------------------------------

func (s *SimTerminal) placePending(request map[string]interface{}) map[string]interface{} {
	symbol, _ := request["symbol"].(string)
	if _, known := s.quotes[symbol]; !known {
		return result(platform.TradeRetcodeInvalid, 0, 0, "Invalid request")
	}
	volume := asFloat(request["volume"])
	if volume <= 0 {
		return result(platform.TradeRetcodeInvalidVolume, 0, 0, "Invalid volume")
	}
	price := asFloat(request["price"])
	if price <= 0 {
		return result(platform.TradeRetcodeInvalidPrice, 0, 0, "Invalid price")
	}

	ticket := s.allocTicket()
	orderType, _ := request["type"].(int)
	s.orders = append(s.orders, map[string]interface{}{
		"ticket":          ticket,
		"symbol":          symbol,
		"type":            int64(orderType),
		"volume_initial":  volume,
		"volume_current":  volume,
		"price_open":      price,
		"sl":              asFloat(request["sl"]),
		"tp":              asFloat(request["tp"]),
		"magic":           asInt64(request["magic"]),
		"comment":         str(request["comment"]),
		"time_setup":      time.Now().Unix(),
		"time_expiration": asInt64(request["expiration"]),
	})
	return result(platform.TradeRetcodeDone, ticket, 0, "Request executed")
}

// -----------------------------------------------------------------------------

func (s *SimTerminal) modifyOrder(request map[string]interface{}) map[string]interface{} {
	ticket := asInt64(request["order"])
	idx := indexByTicket(s.orders, ticket)
	if idx < 0 {
		return result(platform.TradeRetcodeInvalid, 0, 0, "Order not found")
	}
	if price := asFloat(request["price"]); price > 0 {
		s.orders[idx]["price_open"] = price
	}
	if sl := asFloat(request["sl"]); sl > 0 {
		s.orders[idx]["sl"] = sl
	}
	if tp := asFloat(request["tp"]); tp > 0 {
		s.orders[idx]["tp"] = tp
	}
	return result(platform.TradeRetcodeDone, ticket, 0, "Request executed")
}

// -----------------------------------------------------------------------------

func (s *SimTerminal) removeOrder(request map[string]interface{}) map[string]interface{} {
	ticket := asInt64(request["order"])
	idx := indexByTicket(s.orders, ticket)
	if idx < 0 {
		return result(platform.TradeRetcodeInvalid, 0, 0, "Order not found")
	}
	removed := s.orders[idx]
	s.orders = append(s.orders[:idx], s.orders[idx+1:]...)
	s.historyOrders = append(s.historyOrders, removed)
	return result(platform.TradeRetcodeDone, ticket, 0, "Request executed")
}

// -----------------------------------------------------------------------------

func (s *SimTerminal) closeBy(request map[string]interface{}) map[string]interface{} {
	ticket := asInt64(request["position"])
	idx := indexByTicket(s.positions, ticket)
	if idx < 0 {
		return result(platform.TradeRetcodePositionClosed, 0, 0, "Position not found")
	}
	s.positions = append(s.positions[:idx], s.positions[idx+1:]...)
	return result(platform.TradeRetcodeDone, ticket, 0, "Request executed")
}

// -----------------------------------------------------------------------------
// Seeding (tests and simulated runs)
// -----------------------------------------------------------------------------

// SeedHistoryDeal injects a raw deal record, malformed ones included.
func (s *SimTerminal) SeedHistoryDeal(rec map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historyDeals = append(s.historyDeals, rec)
}

// SeedHistoryOrder injects a raw history order record.
func (s *SimTerminal) SeedHistoryOrder(rec map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historyOrders = append(s.historyOrders, rec)
}

// -----------------------------------------------------------------------------
// Internals
// -----------------------------------------------------------------------------

func (s *SimTerminal) failNotInitialized() {
	s.errCode = platform.ErrNoIPC
	s.errMsg = "Terminal not initialized"
}

func (s *SimTerminal) allocTicket() int64 {
	s.nextTicket++
	return s.nextTicket
}

func result(retcode int32, order, deal int64, comment string) map[string]interface{} {
	return map[string]interface{}{
		"retcode": int64(retcode),
		"order":   order,
		"deal":    deal,
		"comment": comment,
	}
}

// -----------------------------------------------------------------------------

func filterBySymbol(recs []map[string]interface{}, symbol string) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(recs))
	for _, rec := range recs {
		if symbol == "" || rec["symbol"] == symbol {
			out = append(out, copyRecord(rec))
		}
	}
	return out
}

func filterByTime(recs []map[string]interface{}, key string, fromTS, toTS int64) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(recs))
	for _, rec := range recs {
		raw, ok := rec[key]
		if !ok {
			// malformed records (no usable time) still flow through for the
			// materializer to classify
			out = append(out, copyRecord(rec))
			continue
		}
		if ts := asInt64(raw); ts >= fromTS && ts <= toTS {
			out = append(out, copyRecord(rec))
		}
	}
	return out
}

func indexByTicket(recs []map[string]interface{}, ticket int64) int {
	for i, rec := range recs {
		if asInt64(rec["ticket"]) == ticket {
			return i
		}
	}
	return -1
}

func copyRecord(rec map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

// -----------------------------------------------------------------------------

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
