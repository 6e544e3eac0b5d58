package fiscaldoc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"tributech-backend/internal/models"
)

type fakeCalculator struct {
	taxes models.ReformTaxes
	err   error
	calls int
}

func (f *fakeCalculator) Calculate(_ context.Context, _ *models.FiscalDocument) (models.ReformTaxes, error) {
	f.calls++
	if f.err != nil {
		return models.ReformTaxes{}, f.err
	}
	return f.taxes, nil
}

func TestFixedRateTaxes(t *testing.T) {
	doc := &models.FiscalDocument{ProductTotal: 10000}

	taxes := FixedRateTaxes(doc)

	assert.Equal(t, 880.0, taxes.CBS)
	assert.Equal(t, 965.0, taxes.IBSUf)
	assert.Equal(t, 535.0, taxes.IBSMun)
	assert.Equal(t, 0.0, taxes.ImpostoSeletivo)
	assert.True(t, taxes.Simulated)
	assert.Equal(t, 2380.0, taxes.Total())
}

func TestEstimateUsesRemoteResult(t *testing.T) {
	calc := &fakeCalculator{taxes: models.ReformTaxes{CBS: 100, IBSUf: 80, IBSMun: 40}}
	est := NewReformEstimator(calc)

	taxes := est.Estimate(context.Background(), &models.FiscalDocument{ProductTotal: 10000})

	assert.Equal(t, 1, calc.calls)
	assert.False(t, taxes.Simulated)
	assert.Equal(t, 220.0, taxes.Total())
}

func TestEstimateRetriesOnceThenFallsBack(t *testing.T) {
	calc := &fakeCalculator{err: errors.New("timeout")}
	est := NewReformEstimator(calc)

	taxes := est.Estimate(context.Background(), &models.FiscalDocument{ProductTotal: 1000})

	assert.Equal(t, 2, calc.calls)
	assert.True(t, taxes.Simulated)
	assert.Equal(t, 88.0, taxes.CBS)
	assert.Equal(t, 96.5, taxes.IBSUf)
	assert.Equal(t, 53.5, taxes.IBSMun)
}

func TestEstimateWithoutCalculatorUsesFixedRates(t *testing.T) {
	est := NewReformEstimator(nil)

	taxes := est.Estimate(context.Background(), &models.FiscalDocument{ProductTotal: 500})

	assert.True(t, taxes.Simulated)
	assert.Equal(t, 44.0, taxes.CBS)
}

func TestCompare(t *testing.T) {
	doc := &models.FiscalDocument{TotalICMS: 900, TotalPIS: 66, TotalCOFINS: 304, TotalIPI: 0}
	reform := models.ReformTaxes{CBS: 880, IBSUf: 965, IBSMun: 535}

	diff, pct := Compare(doc, reform)

	// current 1270, reform 2380
	assert.Equal(t, 1110.0, diff)
	assert.Equal(t, 87.4, pct)
}

func TestCompareReformCheaperIsNegative(t *testing.T) {
	doc := &models.FiscalDocument{TotalICMS: 3000}
	reform := models.ReformTaxes{CBS: 880, IBSUf: 965, IBSMun: 535}

	diff, pct := Compare(doc, reform)

	assert.Equal(t, -620.0, diff)
	assert.InDelta(t, -20.67, pct, 0.01)
}

func TestCompareZeroCurrentTaxes(t *testing.T) {
	doc := &models.FiscalDocument{}
	reform := models.ReformTaxes{CBS: 100}

	diff, pct := Compare(doc, reform)

	assert.Equal(t, 100.0, diff)
	assert.Equal(t, 0.0, pct)
}
