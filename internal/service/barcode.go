package service

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BarcodeGenerator returns a candidate barcode. Uniqueness is enforced by the
// caller and the store, not by the generator.
type BarcodeGenerator func(now time.Time) string

// NewBarcode renders PRD-<unix millis>-<4 random digits>.
func NewBarcode(now time.Time) string {
	return fmt.Sprintf("PRD-%d-%04d", now.UnixMilli(), rand.IntN(10000))
}

// serialFor is the n-th (1-based) serial number of a batch.
func serialFor(base string, n int) string {
	return fmt.Sprintf("%s-%03d", base, n)
}

// parsePower splits "<kW>/<HP>". An empty string yields zero ratings.
func parsePower(raw string) (kw, hp decimal.Decimal, hpText string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, decimal.Zero, "", nil
	}
	parts := strings.Split(raw, "/")
	if len(parts) != 2 {
		return decimal.Zero, decimal.Zero, "", ErrInvalidPower
	}
	kwText, hpText := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if kw, err = decimal.NewFromString(kwText); err != nil {
		return decimal.Zero, decimal.Zero, "", ErrInvalidPower
	}
	if hp, err = decimal.NewFromString(hpText); err != nil {
		return decimal.Zero, decimal.Zero, "", ErrInvalidPower
	}
	return kw, hp, hpText, nil
}

// motorLabel prefixes the motor description with the HP rating, e.g. "5 CRI 3-phase".
func motorLabel(hpText, motor string) string {
	return strings.TrimSpace(hpText + " " + strings.TrimSpace(motor))
}
