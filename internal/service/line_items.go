package service

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	d "github.com/fjod/go_cart/checkout-gateway/internal/domain"
	"github.com/shopspring/decimal"
)

// Prices with exponents outside this window are either zero or overflow
// int64 once scaled, so they are rejected before any big-number rescaling.
const (
	minExponent = -64
	maxExponent = 18
)

var (
	hundred  = decimal.NewFromInt(100)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// BuildLineItems converts cart items into line items, preserving order.
// A single bad item fails the whole cart.
func BuildLineItems(items []d.CartItem, publicBaseURL string) ([]d.LineItem, error) {
	lineItems := make([]d.LineItem, 0, len(items))
	for _, item := range items {
		name := resolveName(item.Name)

		unitAmount, ok := resolveUnitAmount(item.Price)
		if !ok {
			return nil, &d.InvalidItemError{Field: "price", Name: name}
		}

		quantity, ok := resolveQuantity(item.Quantity)
		if !ok {
			return nil, &d.InvalidItemError{Field: "quantity", Name: name}
		}

		lineItems = append(lineItems, d.LineItem{
			Quantity:      quantity,
			UnitAmount:    unitAmount,
			Currency:      d.Currency,
			ProductName:   name,
			ProductImages: resolveImages(item.Image, publicBaseURL),
		})
	}
	return lineItems, nil
}

func resolveName(raw json.RawMessage) string {
	if isFalsy(raw) {
		return d.DefaultItemName
	}
	raw = bytes.TrimSpace(raw)
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case 't':
		return "true"
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err == nil {
			return buf.String()
		}
	default:
		if n, err := decimal.NewFromString(string(raw)); err == nil {
			return n.String()
		}
	}
	return string(raw)
}

// resolveUnitAmount returns round(price * 100) in minor units.
func resolveUnitAmount(raw json.RawMessage) (int64, bool) {
	price, ok := toNumber(raw)
	if !ok || !price.IsZero() && (price.Exponent() < minExponent || price.Exponent() > maxExponent) {
		return 0, false
	}
	amount := price.Mul(hundred).Round(0)
	if !amount.IsPositive() || amount.GreaterThan(maxInt64) {
		return 0, false
	}
	return amount.IntPart(), true
}

// resolveQuantity defaults missing or falsy quantities to 1, truncates
// fractions and never goes below 1.
func resolveQuantity(raw json.RawMessage) (int64, bool) {
	if isFalsy(raw) {
		return 1, true
	}
	q, ok := toNumber(raw)
	if !ok {
		return 0, false
	}
	// Anything below one, however small, floors to 1 without rescaling.
	if q.Sign() <= 0 || q.NumDigits()+int(q.Exponent()) <= 0 {
		return 1, true
	}
	if q.Exponent() > maxExponent {
		return 0, false
	}
	q = q.Truncate(0)
	if q.LessThan(decimal.NewFromInt(1)) {
		return 1, true
	}
	if q.GreaterThan(maxInt64) {
		return 0, false
	}
	return q.IntPart(), true
}

func resolveImages(raw json.RawMessage, publicBaseURL string) []string {
	if publicBaseURL == "" || len(raw) == 0 {
		return nil
	}
	var image string
	if err := json.Unmarshal(raw, &image); err != nil || image == "" {
		return nil
	}
	sep := "/"
	if strings.HasPrefix(image, "/") {
		sep = ""
	}
	return []string{publicBaseURL + sep + image}
}

// toNumber applies loose numeric coercion: numbers and numeric strings parse,
// null, false and blank strings are zero, true is one, anything else fails.
func toNumber(raw json.RawMessage) (decimal.Decimal, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return decimal.Zero, false
	}

	var text string
	switch raw[0] {
	case 'n', 'f':
		return decimal.Zero, true
	case 't':
		return decimal.NewFromInt(1), true
	case '{', '[':
		return decimal.Zero, false
	case '"':
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, false
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return decimal.Zero, true
		}
	default:
		text = string(raw)
	}

	n, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false
	}
	return n, true
}

func isFalsy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return true
	}
	switch string(raw) {
	case "null", "false", `""`:
		return true
	}
	if raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9') {
		n, err := decimal.NewFromString(string(raw))
		return err == nil && n.IsZero()
	}
	return false
}
