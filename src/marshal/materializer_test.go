package marshal

import (
	"errors"
	"testing"
	"time"

	"mt5-bridge/src/helpers"
	"mt5-bridge/src/logger"
	"mt5-bridge/src/models"
)

func newTestMaterializer() *Materializer {
	return NewMaterializer(logger.NewLogger("INFO", "test"))
}

func accountRecord() map[string]interface{} {
	return map[string]interface{}{
		"login":         int64(123456),
		"balance":       10000.0,
		"equity":        10123.5,
		"margin":        250.0,
		"margin_free":   9873.5,
		"leverage":      int64(100),
		"currency":      "USD",
		"trade_allowed": true,
	}
}

func dealRecord(ticket int64) map[string]interface{} {
	return map[string]interface{}{
		"ticket":     ticket,
		"order":      ticket + 1,
		"symbol":     "EURUSD",
		"type":       int64(0),
		"volume":     0.1,
		"price":      1.08671,
		"profit":     12.5,
		"commission": -0.7,
		"swap":       0.0,
		"magic":      int64(42),
		"comment":    "test",
		"time":       int64(1700000000),
	}
}

// -----------------------------------------------------------------------------

func TestAccountSnapshot(t *testing.T) {
	m := newTestMaterializer()

	snap, err := m.Account(accountRecord())
	if err != nil {
		t.Fatalf("Account() failed: %v", err)
	}
	if snap.Login != 123456 {
		t.Errorf("Login = %d, want 123456", snap.Login)
	}
	if snap.Balance != 10000.0 {
		t.Errorf("Balance = %g, want 10000", snap.Balance)
	}
	if !snap.TradeAllowed {
		t.Error("TradeAllowed = false, want true")
	}
}

func TestAccountMissingFieldFails(t *testing.T) {
	m := newTestMaterializer()

	rec := accountRecord()
	delete(rec, "equity")

	_, err := m.Account(rec)
	if err == nil {
		t.Fatal("Account() with missing equity should fail")
	}
	var me *helpers.MarshallingError
	if !errors.As(err, &me) {
		t.Errorf("error = %T, want *MarshallingError", err)
	}
}

func TestAccountIllTypedFieldFails(t *testing.T) {
	m := newTestMaterializer()

	rec := accountRecord()
	rec["currency"] = 840 // numeric where string expected

	_, err := m.Account(rec)
	var me *helpers.MarshallingError
	if !errors.As(err, &me) {
		t.Fatalf("error = %v, want MarshallingError", err)
	}
}

// -----------------------------------------------------------------------------

func TestPositionsStrictFailure(t *testing.T) {
	m := newTestMaterializer()

	good := map[string]interface{}{
		"ticket": int64(1), "symbol": "EURUSD", "type": int64(0),
		"volume": 0.1, "price_open": 1.085, "price_current": 1.086,
		"sl": 0.0, "tp": 0.0, "profit": 1.0, "swap": 0.0,
		"magic": int64(0), "comment": "", "time": int64(1700000000),
	}
	bad := map[string]interface{}{"ticket": int64(2)}

	if _, err := m.Positions([]map[string]interface{}{good}); err != nil {
		t.Fatalf("Positions() with good record failed: %v", err)
	}

	// One malformed record fails the whole live query.
	if _, err := m.Positions([]map[string]interface{}{good, bad}); err == nil {
		t.Fatal("Positions() with malformed record should fail")
	}
}

// -----------------------------------------------------------------------------

func TestHistoryDealsSkipsMalformed(t *testing.T) {
	m := newTestMaterializer()

	recs := make([]map[string]interface{}, 0, 10)
	for i := 0; i < 9; i++ {
		recs = append(recs, dealRecord(int64(1000+i)))
	}
	// Tenth record lacks its price field.
	broken := dealRecord(2000)
	delete(broken, "price")
	recs = append(recs, broken)

	snaps, skipped := m.HistoryDeals(recs)
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(snaps) != 9 {
		t.Errorf("len(snaps) = %d, want 9", len(snaps))
	}
}

func TestHistoryDealsEmptyBatch(t *testing.T) {
	m := newTestMaterializer()

	snaps, skipped := m.HistoryDeals([]map[string]interface{}{})
	if snaps == nil {
		t.Fatal("empty batch must materialize as empty, not nil")
	}
	if len(snaps) != 0 || skipped != 0 {
		t.Errorf("got %d snaps, %d skipped, want 0/0", len(snaps), skipped)
	}
}

// -----------------------------------------------------------------------------

func TestTimeNormalization(t *testing.T) {
	m := newTestMaterializer()
	loc := time.FixedZone("UTC+3", 3*60*60)
	when := time.Date(2024, 3, 15, 13, 30, 0, 0, loc)
	wantEpoch := when.UTC().Unix()

	tests := []struct {
		name string
		raw  interface{}
	}{
		{"native time object", when},
		{"epoch int64", wantEpoch},
		{"epoch float", float64(wantEpoch)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := dealRecord(1)
			rec["time"] = tt.raw

			snaps, skipped := m.HistoryDeals([]map[string]interface{}{rec})
			if skipped != 0 || len(snaps) != 1 {
				t.Fatalf("materialization failed: %d snaps, %d skipped", len(snaps), skipped)
			}
			if snaps[0].ExecutedAt != wantEpoch {
				t.Errorf("ExecutedAt = %d, want %d", snaps[0].ExecutedAt, wantEpoch)
			}
		})
	}
}

// -----------------------------------------------------------------------------

func TestOrderSnapshotExpirationOptional(t *testing.T) {
	m := newTestMaterializer()

	rec := map[string]interface{}{
		"ticket": int64(5), "symbol": "EURUSD", "type": int64(2),
		"volume_initial": 0.2, "volume_current": 0.2, "price_open": 1.08,
		"sl": 0.0, "tp": 0.0, "magic": int64(0), "comment": "",
		"time_setup": int64(1700000000),
		// no time_expiration: GTC order
	}

	snaps, err := m.Orders([]map[string]interface{}{rec})
	if err != nil {
		t.Fatalf("Orders() failed: %v", err)
	}
	if snaps[0].ExpiresAt != 0 {
		t.Errorf("ExpiresAt = %d, want 0 for GTC", snaps[0].ExpiresAt)
	}
	if snaps[0].Type != models.OrderTypeBuyLimit {
		t.Errorf("Type = %s, want BUY_LIMIT", snaps[0].Type)
	}
}

// -----------------------------------------------------------------------------

func TestOrderResultNilBecomesSentinel(t *testing.T) {
	m := newTestMaterializer()

	res := m.OrderResult(nil)
	if res == nil {
		t.Fatal("OrderResult(nil) must still return a value")
	}
	if res.Retcode != models.RetcodeUnknownFailure {
		t.Errorf("Retcode = %d, want %d", res.Retcode, models.RetcodeUnknownFailure)
	}
	if res.Comment == "" {
		t.Error("sentinel result should carry an explanatory comment")
	}
}

func TestOrderResultPartialFields(t *testing.T) {
	m := newTestMaterializer()

	// retcode present, order/deal/comment absent: degrade, never fail.
	res := m.OrderResult(map[string]interface{}{"retcode": int64(10009)})
	if res.Retcode != 10009 {
		t.Errorf("Retcode = %d, want 10009", res.Retcode)
	}
	if res.Order != 0 || res.Deal != 0 {
		t.Errorf("Order/Deal = %d/%d, want 0/0", res.Order, res.Deal)
	}
}

// -----------------------------------------------------------------------------

func TestTickSnapshot(t *testing.T) {
	m := newTestMaterializer()

	snap, err := m.Tick(map[string]interface{}{
		"time": int64(1700000000), "bid": 1.08655, "ask": 1.08671,
		"last": 1.08655, "volume": 0.0,
	})
	if err != nil {
		t.Fatalf("Tick() failed: %v", err)
	}
	if snap.Bid >= snap.Ask {
		t.Errorf("bid %g >= ask %g", snap.Bid, snap.Ask)
	}
}
