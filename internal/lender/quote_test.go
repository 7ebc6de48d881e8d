// internal/lender/quote_test.go
package lender

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteShape(t *testing.T) {
	engine := NewSimulatedLenderWithSource(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		terms := engine.Quote(25000, 80000)

		// 10-30% down leaves 70-90% financed
		assert.GreaterOrEqual(t, terms.LoanAmount, 17500)
		assert.LessOrEqual(t, terms.LoanAmount, 22500)

		// income above the pivot means no penalty, rate is base + noise
		assert.GreaterOrEqual(t, terms.InterestRate, 3.5)
		assert.Less(t, terms.InterestRate, 5.51)

		assert.Contains(t, []int{36, 48, 60, 72}, terms.TermLength)
		assert.Regexp(t, `^APR-\d+-\d{6}$`, terms.ApprovalID)
		assert.False(t, terms.ApprovedAt.IsZero())
	}
}

func TestQuoteIncomePenalty(t *testing.T) {
	engine := NewSimulatedLenderWithSource(rand.NewSource(7))

	// 30000 income means a 3-point penalty over base
	for i := 0; i < 200; i++ {
		terms := engine.Quote(25000, 30000)
		assert.GreaterOrEqual(t, terms.InterestRate, 6.5)
		assert.Less(t, terms.InterestRate, 8.51)
	}
}

func TestQuoteRateHasTwoDecimals(t *testing.T) {
	engine := NewSimulatedLenderWithSource(rand.NewSource(3))

	for i := 0; i < 50; i++ {
		terms := engine.Quote(30000, 55000)
		scaled := terms.InterestRate * 100
		assert.InDelta(t, math.Round(scaled), scaled, 1e-9)
	}
}

func TestQuotePaymentMatchesAmortization(t *testing.T) {
	engine := NewSimulatedLenderWithSource(rand.NewSource(11))

	for i := 0; i < 50; i++ {
		terms := engine.Quote(41200, 65000)
		assert.Equal(t, MonthlyPayment(terms.LoanAmount, terms.InterestRate, terms.TermLength), terms.MonthlyPayment)
	}
}

func TestMonthlyPayment(t *testing.T) {
	// 20000 at 6% over 60 months is a well-known 386.66/month
	assert.Equal(t, 387, MonthlyPayment(20000, 6.0, 60))

	// zero rate degenerates to straight division
	assert.Equal(t, 500, MonthlyPayment(18000, 0, 36))

	payment := MonthlyPayment(22500, 4.25, 48)
	assert.Greater(t, payment, 22500/48)
}

func TestFixedQuoteIgnoresInputs(t *testing.T) {
	engine := FixedQuote{}
	a := engine.Quote(10000, 10000)
	b := engine.Quote(99999, 99999)
	assert.Equal(t, a, b)
}
