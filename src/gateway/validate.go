package gateway

import (
	"time"

	"mt5-bridge/src/helpers"
	"mt5-bridge/src/models"
)

// -----------------------------------------------------------------------------
// Local OrderRequest validation. Anything rejected here never reaches the
// native layer; the caller gets a structured ValidationFailure instead of a
// native retcode for garbage input.
// -----------------------------------------------------------------------------

func ValidateOrderRequest(o *models.MOrderRequest) error {
	if !o.Action.Valid() {
		return helpers.NewValidationError("submit_order: unknown action %q", o.Action)
	}
	if o.OrderType != "" && !o.OrderType.Valid() {
		return helpers.NewValidationError("submit_order: unknown order type %q", o.OrderType)
	}
	if o.FillingMode != "" && !o.FillingMode.Valid() {
		return helpers.NewValidationError("submit_order: unknown filling mode %q", o.FillingMode)
	}
	if o.TimeMode != "" && !o.TimeMode.Valid() {
		return helpers.NewValidationError("submit_order: unknown time mode %q", o.TimeMode)
	}

	switch o.Action {
	case models.ActionMarketDeal, models.ActionPending:
		if o.Symbol == "" {
			return helpers.NewValidationError("submit_order: symbol is required for %s", o.Action)
		}
		if o.Volume <= 0 {
			return helpers.NewValidationError("submit_order: volume must be positive, got %g", o.Volume)
		}
		if o.OrderType == "" {
			return helpers.NewValidationError("submit_order: order_type is required for %s", o.Action)
		}
		if o.Action == models.ActionPending {
			if !o.OrderType.IsPending() {
				return helpers.NewValidationError("submit_order: %s is not a pending order type", o.OrderType)
			}
			if o.Price <= 0 {
				return helpers.NewValidationError("submit_order: price must be positive for pending orders")
			}
		}

	case models.ActionModify, models.ActionRemove:
		if o.Order <= 0 {
			return helpers.NewValidationError("submit_order: order ticket is required for %s", o.Action)
		}

	case models.ActionCloseBy:
		if o.Position <= 0 {
			return helpers.NewValidationError("submit_order: position ticket is required for %s", o.Action)
		}
	}

	if o.TimeMode == models.TimeSpecified {
		if o.Expiration <= 0 {
			return helpers.NewValidationError("submit_order: SPECIFIED time mode requires an expiration")
		}
		if o.Expiration <= time.Now().Unix() {
			return helpers.NewValidationError("submit_order: expiration is in the past")
		}
	}

	return nil
}
