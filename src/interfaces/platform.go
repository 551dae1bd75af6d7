package interfaces

// -----------------------------------------------------------------------------
// ITradingPlatform is the opaque native-terminal boundary.
//
// Record-returning calls hand back loosely-typed attribute maps, mirroring the
// dynamic surface of the native API. A nil map/slice means the native layer
// failed and LastError holds the detail; an empty non-nil slice means success
// with zero records. The handle is non-reentrant: callers serialize access.
// -----------------------------------------------------------------------------

type ITradingPlatform interface {

	// -----------------------------------------------------------------------------

	// Initialize establishes the terminal connection. Safe to call again after
	// a failure; the bridge attempts it at most once per request.
	Initialize() bool

	// -----------------------------------------------------------------------------

	// Shutdown releases the terminal handle.
	Shutdown()

	// -----------------------------------------------------------------------------

	// LastError returns the native (code, message) pair for the last failure.
	LastError() (int, string)

	// -----------------------------------------------------------------------------
	// Queries

	AccountInfo() map[string]interface{}
	PositionsGet(symbol string) []map[string]interface{}
	OrdersGet(symbol string) []map[string]interface{}
	HistoryOrdersGet(fromTS, toTS int64) []map[string]interface{}
	HistoryDealsGet(fromTS, toTS int64) []map[string]interface{}
	SymbolInfo(symbol string) map[string]interface{}
	SymbolInfoTick(symbol string) map[string]interface{}

	// -----------------------------------------------------------------------------
	// Commands

	// OrderCalcMargin returns the required margin; ok=false means native failure.
	OrderCalcMargin(orderType int, symbol string, volume, price float64) (float64, bool)

	// OrderSend submits a native trade request map and returns the native
	// result record, or nil when the terminal produced nothing.
	OrderSend(request map[string]interface{}) map[string]interface{}
}
