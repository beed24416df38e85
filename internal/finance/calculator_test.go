package finance

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/arcticflow-dispatch/internal/bookings"
)

func sequence() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("line-%d", n)
	}
}

func TestDeriveLabourEquipmentAndTax(t *testing.T) {
	b := bookings.Booking{
		LaborHours:    2.5,
		EquipmentUsed: []string{"Ducted Zone Controller"},
	}
	sum := Derive(b, DefaultSettings())
	assert.InDelta(t, 275, sum.LaborSubtotal, 1e-9)
	assert.InDelta(t, 450, sum.EquipmentSubtotal, 1e-9)
	assert.InDelta(t, 725, sum.Subtotal, 1e-9)
	assert.InDelta(t, 72.5, sum.Tax, 1e-9)
	assert.InDelta(t, 797.5, sum.Total, 1e-9)
	assert.InDelta(t, 797.5, sum.Balance, 1e-9)
}

func TestDeriveManualLinesPaymentsAndUnknownEquipment(t *testing.T) {
	b := bookings.Booking{
		EquipmentUsed: []string{"Flux Capacitor"},
		LineItems: []bookings.LineItem{
			{Description: "Diagnostic Fee", Amount: 80},
			{Description: "Labour: 1hrs @ $110/hr", Amount: 110},
			{Description: "GST (10%)", Amount: 19},
			{Description: "Refrigerant Refill", Amount: 120, Origin: bookings.OriginManual},
		},
		Payments: []bookings.Payment{{Amount: 300}},
	}
	sum := Derive(b, DefaultSettings())
	assert.Zero(t, sum.EquipmentSubtotal)
	assert.InDelta(t, 200, sum.ManualSubtotal, 1e-9)
	assert.InDelta(t, 220, sum.Total, 1e-9)
	assert.InDelta(t, -80, sum.Balance, 1e-9, "overpayment is surfaced, not clamped")
}

func TestSynthesizedPrefersOrigin(t *testing.T) {
	assert.False(t, Synthesized(bookings.LineItem{Description: "GST registration advice", Origin: bookings.OriginManual}))
	assert.True(t, Synthesized(bookings.LineItem{Description: "anything", Origin: bookings.OriginTax}))
	assert.True(t, Synthesized(bookings.LineItem{Description: "Equipment: 5kW Split System Unit"}))
	assert.False(t, Synthesized(bookings.LineItem{Description: "Call-out fee"}))
}

func TestCommitChargesLines(t *testing.T) {
	b := bookings.Booking{
		LaborHours:    2.5,
		EquipmentUsed: []string{"Ducted Zone Controller", "Inverter Compressor"},
		LineItems:     []bookings.LineItem{{ID: "m1", Description: "Call-out fee", Amount: 80, Origin: bookings.OriginManual}},
	}
	out := CommitCharges(b, DefaultSettings(), sequence())
	require.True(t, out.IsInvoiced)
	require.Len(t, out.LineItems, 5)
	assert.Equal(t, "Call-out fee", out.LineItems[0].Description)
	assert.Equal(t, "Labour: 2.5hrs @ $110/hr", out.LineItems[1].Description)
	assert.InDelta(t, 275, out.LineItems[1].Amount, 1e-9)
	assert.Equal(t, "Equipment: Ducted Zone Controller", out.LineItems[2].Description)
	assert.Equal(t, "Equipment: Inverter Compressor", out.LineItems[3].Description)
	assert.Equal(t, "GST (10%)", out.LineItems[4].Description)
	assert.InDelta(t, (275+450+890+80)*0.1, out.LineItems[4].Amount, 1e-9)
	assert.Len(t, b.LineItems, 1, "input booking is not modified")
}

func TestCommitChargesWithoutLabourSkipsLabourLine(t *testing.T) {
	out := CommitCharges(bookings.Booking{}, DefaultSettings(), sequence())
	require.Len(t, out.LineItems, 1)
	assert.Equal(t, bookings.OriginTax, out.LineItems[0].Origin)
	assert.Zero(t, out.LineItems[0].Amount)
}

func TestCommitChargesIsIdempotentInTotal(t *testing.T) {
	b := bookings.Booking{
		LaborHours:    3,
		EquipmentUsed: []string{"7kW Split System Unit"},
		LineItems:     []bookings.LineItem{{Description: "Disposal", Amount: 45}},
	}
	s := DefaultSettings()
	once := CommitCharges(b, s, sequence())
	twice := CommitCharges(once, s, sequence())
	assert.Equal(t, Derive(once, s).Total, Derive(twice, s).Total)
	assert.Len(t, twice.LineItems, len(once.LineItems))
	assert.InDelta(t, Derive(b, s).Total, Derive(twice, s).Total, 1e-9)
}

func TestBuildInvoicePreviewsUncommittedCharges(t *testing.T) {
	b := bookings.Booking{ID: "abc123", Name: "John Doe", LaborHours: 1, Payments: []bookings.Payment{{Amount: 50}}}
	inv := BuildInvoice(b, DefaultSettings())
	assert.Equal(t, "INV-ABC123", inv.Number)
	assert.False(t, inv.Committed)
	require.Len(t, inv.Lines, 2)
	assert.InDelta(t, 121, inv.Summary.Total, 1e-9)
	assert.InDelta(t, 71, inv.Summary.Balance, 1e-9)
}
