package marshal

import (
	"math"
	"time"

	"mt5-bridge/src/helpers"
)

// -----------------------------------------------------------------------------
// Strict field extraction from native attribute maps.
//
// Native records surface attributes dynamically; a snapshot field that is
// missing or carries the wrong type is a loud MarshallingError, never a
// silent zero. Numeric widths are coerced because the native layer is not
// consistent about int vs float for counters and flags.
// -----------------------------------------------------------------------------

func reqInt64(rec map[string]interface{}, kind, key string) (int64, error) {
	v, ok := rec[key]
	if !ok {
		return 0, missing(kind, key)
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, illTyped(kind, key)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, illTyped(kind, key)
		}
		return int64(n), nil
	}
	return 0, illTyped(kind, key)
}

// -----------------------------------------------------------------------------

func reqFloat(rec map[string]interface{}, kind, key string) (float64, error) {
	v, ok := rec[key]
	if !ok {
		return 0, missing(kind, key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	}
	return 0, illTyped(kind, key)
}

// -----------------------------------------------------------------------------

func reqString(rec map[string]interface{}, kind, key string) (string, error) {
	v, ok := rec[key]
	if !ok {
		return "", missing(kind, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", illTyped(kind, key)
	}
	return s, nil
}

// -----------------------------------------------------------------------------

func reqBool(rec map[string]interface{}, kind, key string) (bool, error) {
	v, ok := rec[key]
	if !ok {
		return false, missing(kind, key)
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case int64:
		return b != 0, nil
	case int:
		return b != 0, nil
	}
	return false, illTyped(kind, key)
}

// -----------------------------------------------------------------------------

// reqEpoch normalizes any native time representation to integer epoch seconds
// UTC. Language-native time objects never cross the boundary.
func reqEpoch(rec map[string]interface{}, kind, key string) (int64, error) {
	v, ok := rec[key]
	if !ok {
		return 0, missing(kind, key)
	}
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Unix(), nil
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case float64:
		return int64(t), nil
	}
	return 0, illTyped(kind, key)
}

// -----------------------------------------------------------------------------

// optEpoch is reqEpoch for fields that may legitimately be absent (order
// expiration on GTC orders). Absent resolves to 0.
func optEpoch(rec map[string]interface{}, kind, key string) (int64, error) {
	if _, ok := rec[key]; !ok {
		return 0, nil
	}
	return reqEpoch(rec, kind, key)
}

// -----------------------------------------------------------------------------

func missing(kind, key string) error {
	return helpers.NewMarshallingError("%s record: missing field %q", kind, key)
}

func illTyped(kind, key string) error {
	return helpers.NewMarshallingError("%s record: ill-typed field %q", kind, key)
}
