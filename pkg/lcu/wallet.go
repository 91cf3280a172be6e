package lcu

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
)

// Candidate field names, tried in order. Client versions disagree on where
// and under which name the balances are published.
var (
	storeBlueEssenceKeys     = []string{"ip", "blueEssence", "be", "BE", "blue_essence", "lol_blue_essence"}
	inventoryBlueEssenceKeys = []string{"BE", "be", "blueEssence", "BLUE_ESSENCE", "blue_essence", "lol_blue_essence"}
	storeRiotPointsKeys      = []string{"rp", "RP", "lol_rp"}
	inventoryRiotPointsKeys  = []string{"RP", "rp", "lol_rp"}
)

var digits = regexp.MustCompile(`\d+`)

// Wallet holds currency balances. Zero means "not reported" as often as it
// means an empty balance; callers decide what to keep.
type Wallet struct {
	BlueEssence int
	RiotPoints  int
}

// ReadWallet reads both balances from the store wallet and falls back to the
// inventory wallet for any balance that came back zero.
//
// Non-2xx replies and unexpected shapes count as zero. Transport errors are
// returned so the caller can drop the session.
func (h *Handler) ReadWallet(ctx context.Context) (Wallet, error) {
	var w Wallet

	raw, err := h.StoreWallet(ctx)
	switch {
	case err == nil:
		doc := decodeLoose(raw)
		w.BlueEssence, _ = probeAmount(doc, storeBlueEssenceKeys, false)
		w.RiotPoints, _ = probeAmount(doc, storeRiotPointsKeys, false)
	case isAbsence(err):
		h.logger.Debug("store wallet unavailable", "error", err)
	default:
		return Wallet{}, err
	}

	if w.BlueEssence == 0 {
		raw, err := h.InventoryWallet(ctx, "BE", "BLUE_ESSENCE")
		switch {
		case err == nil:
			w.BlueEssence, _ = probeAmount(decodeLoose(raw), inventoryBlueEssenceKeys, false)
		case isAbsence(err):
			h.logger.Debug("inventory wallet unavailable", "currency", "BE", "error", err)
		default:
			return Wallet{}, err
		}
	}

	if w.RiotPoints == 0 {
		raw, err := h.InventoryWallet(ctx, "RP")
		switch {
		case err == nil:
			// A single-currency reply may carry the balance under any key.
			w.RiotPoints, _ = probeAmount(decodeLoose(raw), inventoryRiotPointsKeys, true)
		case isAbsence(err):
			h.logger.Debug("inventory wallet unavailable", "currency", "RP", "error", err)
		default:
			return Wallet{}, err
		}
	}

	return w, nil
}

// isAbsence reports errors that mean "no data" rather than a broken session.
func isAbsence(err error) bool {
	return errors.Is(err, ErrUnexpectedStatus) || errors.Is(err, ErrDecode)
}

func decodeLoose(raw json.RawMessage) interface{} {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	return doc
}

// probeAmount looks up the first present key in an object, or in the first
// element of an array. With anyValue set, a lone value is accepted when none
// of the keys match.
func probeAmount(doc interface{}, keys []string, anyValue bool) (int, bool) {
	switch v := doc.(type) {
	case map[string]interface{}:
		for _, k := range keys {
			if val, ok := v[k]; ok && val != nil {
				return ParseAmount(val), true
			}
		}
		if anyValue && len(v) == 1 {
			for _, val := range v {
				return ParseAmount(val), true
			}
		}
	case []interface{}:
		if len(v) == 0 {
			return 0, false
		}
		if obj, ok := v[0].(map[string]interface{}); ok {
			return probeAmount(obj, keys, anyValue)
		}
		if anyValue {
			return ParseAmount(v[0]), true
		}
	case float64, string:
		if anyValue {
			return ParseAmount(v), true
		}
	}
	return 0, false
}

// ParseAmount converts a number, or the first run of digits in a string, to
// an int. Anything else is zero.
func ParseAmount(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return int(f)
	case string:
		m := digits.FindString(n)
		if m == "" {
			return 0
		}
		i, err := strconv.Atoi(m)
		if err != nil {
			return 0
		}
		return i
	}
	return 0
}
