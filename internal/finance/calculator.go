// Package finance derives job charges from booking state. Totals are never
// stored; they are recomputed from labour, equipment, line items and payments.
package finance

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wolfman30/arcticflow-dispatch/internal/bookings"
)

// TaxRate is the GST applied to every subtotal.
const TaxRate = 0.10

// Summary is the derived financial view of one booking.
type Summary struct {
	LaborSubtotal     float64 `json:"laborSubtotal"`
	EquipmentSubtotal float64 `json:"equipmentSubtotal"`
	ManualSubtotal    float64 `json:"manualSubtotal"`
	Subtotal          float64 `json:"subtotal"`
	Tax               float64 `json:"tax"`
	Total             float64 `json:"total"`
	Paid              float64 `json:"paid"`
	Balance           float64 `json:"balance"`
}

// Derive computes the summary. Unknown equipment models cost nothing and an
// overpaid booking has a negative balance.
func Derive(b bookings.Booking, s Settings) Summary {
	var sum Summary
	sum.LaborSubtotal = b.LaborHours * s.HourlyRate
	for _, model := range b.EquipmentUsed {
		sum.EquipmentSubtotal += s.CatalogCost(model)
	}
	for _, li := range b.LineItems {
		if !Synthesized(li) {
			sum.ManualSubtotal += li.Amount
		}
	}
	sum.Subtotal = sum.LaborSubtotal + sum.EquipmentSubtotal + sum.ManualSubtotal
	sum.Tax = roundCents(sum.Subtotal * TaxRate)
	sum.Total = roundCents(sum.Subtotal + sum.Tax)
	for _, p := range b.Payments {
		sum.Paid += p.Amount
	}
	sum.Balance = roundCents(sum.Total - sum.Paid)
	return sum
}

// Synthesized reports whether a line was produced by CommitCharges. Lines
// without an origin tag fall back to the description prefix convention.
func Synthesized(li bookings.LineItem) bool {
	switch li.Origin {
	case bookings.OriginLabor, bookings.OriginEquipment, bookings.OriginTax:
		return true
	case bookings.OriginManual:
		return false
	}
	d := strings.TrimSpace(li.Description)
	return strings.HasPrefix(d, "Labour:") || strings.HasPrefix(d, "Equipment:") || strings.HasPrefix(d, "GST")
}

// CommitCharges materializes labour, equipment and GST as line items,
// replacing any previously synthesized lines, and marks the booking invoiced.
// newID supplies line identities.
func CommitCharges(b bookings.Booking, s Settings, newID func() string) bookings.Booking {
	out := b.Clone()
	sum := Derive(b, s)

	lines := make([]bookings.LineItem, 0, len(b.LineItems)+len(b.EquipmentUsed)+2)
	for _, li := range b.LineItems {
		if !Synthesized(li) {
			lines = append(lines, li)
		}
	}
	if b.LaborHours > 0 {
		lines = append(lines, bookings.LineItem{
			ID:          newID(),
			Description: fmt.Sprintf("Labour: %shrs @ $%s/hr", formatNumber(b.LaborHours), formatNumber(s.HourlyRate)),
			Amount:      sum.LaborSubtotal,
			Origin:      bookings.OriginLabor,
		})
	}
	for _, model := range b.EquipmentUsed {
		lines = append(lines, bookings.LineItem{
			ID:          newID(),
			Description: "Equipment: " + model,
			Amount:      s.CatalogCost(model),
			Origin:      bookings.OriginEquipment,
		})
	}
	lines = append(lines, bookings.LineItem{
		ID:          newID(),
		Description: fmt.Sprintf("GST (%s%%)", formatNumber(gstLabelRate(s))),
		Amount:      sum.Tax,
		Origin:      bookings.OriginTax,
	})

	out.LineItems = lines
	out.IsInvoiced = true
	return out
}

func gstLabelRate(s Settings) float64 {
	if s.GSTRate > 0 {
		return s.GSTRate
	}
	return TaxRate * 100
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
