// internal/lender/quote.go
package lender

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"autoflow/internal/models"
)

// QuoteEngine produces approval terms for a resolved vehicle price and
// annual income. Production uses the randomized simulation; tests can
// substitute a deterministic engine.
type QuoteEngine interface {
	Quote(vehiclePrice int, annualIncome int) models.ApprovalTerms
}

const (
	baseRate      = 3.5
	incomePivot   = 60000
	penaltyPer10k = 10000
)

var termOptions = []int{36, 48, 60, 72}

// SimulatedLender emulates an external lender decision. Quotes are random
// but income-sensitive: the rate penalty grows by one point per 10000 of
// income under 60000. The rate is deliberately not clamped.
type SimulatedLender struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSimulatedLender returns an engine seeded from the clock.
func NewSimulatedLender() *SimulatedLender {
	return NewSimulatedLenderWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewSimulatedLenderWithSource returns an engine with a caller-controlled
// randomness source, for reproducible tests.
func NewSimulatedLenderWithSource(src rand.Source) *SimulatedLender {
	return &SimulatedLender{
		rng: rand.New(src),
		now: time.Now,
	}
}

func (l *SimulatedLender) Quote(vehiclePrice int, annualIncome int) models.ApprovalTerms {
	l.mu.Lock()
	defer l.mu.Unlock()

	// 10-30% down payment
	downPayment := l.rng.Float64()*0.2 + 0.1
	loanAmount := int(math.Round(float64(vehiclePrice) * (1 - downPayment)))

	incomePenalty := math.Max(0, float64(incomePivot-annualIncome)/penaltyPer10k)
	noise := l.rng.Float64() * 2
	interestRate := math.Round((baseRate+incomePenalty+noise)*100) / 100

	termLength := termOptions[l.rng.Intn(len(termOptions))]

	now := l.now().UTC()
	return models.ApprovalTerms{
		LoanAmount:     loanAmount,
		InterestRate:   interestRate,
		TermLength:     termLength,
		MonthlyPayment: MonthlyPayment(loanAmount, interestRate, termLength),
		ApprovalID:     fmt.Sprintf("APR-%d-%06d", now.UnixMilli(), l.rng.Intn(1000000)),
		ApprovedAt:     now,
	}
}

// MonthlyPayment computes the standard amortizing-loan payment. A zero
// monthly rate degenerates the formula to straight division.
func MonthlyPayment(loanAmount int, interestRate float64, termLength int) int {
	r := interestRate / 100 / 12
	n := float64(termLength)
	if r == 0 {
		return int(math.Round(float64(loanAmount) / n))
	}
	factor := math.Pow(1+r, n)
	return int(math.Round(float64(loanAmount) * r * factor / (factor - 1)))
}

// FixedQuote is a deterministic QuoteEngine for tests and demos.
type FixedQuote struct {
	Terms models.ApprovalTerms
}

func (f FixedQuote) Quote(vehiclePrice, annualIncome int) models.ApprovalTerms {
	return f.Terms
}
