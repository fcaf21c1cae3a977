package config

import (
	"path/filepath"
	"testing"

	"github.com/iwvelando/cre-underwriter/internal/sector"
	"github.com/iwvelando/cre-underwriter/internal/sensitivity"
	"github.com/iwvelando/cre-underwriter/internal/waterfall"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDeal = `
name: Maple Court Apartments
sector: multifamily
sectorProfile:
  propertyType: Garden apartments
  units: 120
  occupiedUnits: 114
inputs:
  purchasePrice: 18000000
  grossPotentialRent: 2100000
  vacancyRate: 0.05
  otherIncome: 60000
  operatingExpenses: 820000
  loanAmount: 12000000
  interestRate: 0.0625
  amortizationYears: 30
  exitCapRate: 0.0575
  holdPeriodYears: 7
  rentGrowth: 0.03
waterfall:
  lpEquity: 5400000
  gpEquity: 600000
  preferredReturn: 0.08
  catchUp: true
  catchUpPercent: 0.2
  tiers:
    - name: Promote
      hurdle: 0.15
      lpSplit: 0.8
      gpSplit: 0.2
    - name: Residual
      lpSplit: 0.7
      gpSplit: 0.3
scenarios:
  - name: Base
    active: true
  - name: Soft exit
    active: true
    overrides:
      exitCapRate: 0.0625
      rentGrowth: 0.02
  - name: Disabled
    active: false
sensitivity:
  rowParam: exitcaprate
  rowValues: [0.055, 0.0575, 0.06]
  colParam: holdPeriodYears
  colValues: [5, 7]
  metric: irr
targets:
  - param: purchase_price
    value: 0.12
    min: 15000000
    max: 22000000
`

func TestLoadDeal(t *testing.T) {
	path := writeFile(t, "deal.yaml", sampleDeal)
	deal, err := LoadDeal(path)
	require.NoError(t, err)

	assert.Equal(t, "Maple Court Apartments", deal.Name)
	assert.Equal(t, sector.Multifamily, deal.SectorOverride())
	assert.Equal(t, "Garden apartments", deal.SectorProfile.PropertyType)
	require.NotNil(t, deal.SectorProfile.Units)
	assert.Equal(t, 120.0, *deal.SectorProfile.Units)

	require.NotNil(t, deal.Inputs.PurchasePrice)
	assert.Equal(t, 18000000.0, *deal.Inputs.PurchasePrice)
	require.NotNil(t, deal.Inputs.ExitCapRate)
	assert.Equal(t, 0.0575, *deal.Inputs.ExitCapRate)
	assert.Nil(t, deal.Inputs.ExpenseGrowth)

	require.NotNil(t, deal.Waterfall)
	assert.Equal(t, 5400000.0, deal.Waterfall.LPEquity)
	require.Len(t, deal.Waterfall.Tiers, 2)
	require.NotNil(t, deal.Waterfall.Tiers[0].Hurdle)
	assert.Equal(t, 0.15, *deal.Waterfall.Tiers[0].Hurdle)
	assert.Nil(t, deal.Waterfall.Tiers[1].Hurdle)
	assert.NoError(t, deal.Waterfall.Validate())

	require.Len(t, deal.Scenarios, 3)
	assert.Equal(t, map[string]float64{"exitCapRate": 0.0625, "rentGrowth": 0.02}, deal.Scenarios[1].Overrides)
	assert.False(t, deal.Scenarios[2].Active)

	require.NotNil(t, deal.Sensitivity)
	assert.Equal(t, "exitCapRate", deal.Sensitivity.RowParam)
	assert.Equal(t, []float64{5, 7}, deal.Sensitivity.ColValues)
	assert.NoError(t, deal.Sensitivity.Validate())

	require.Len(t, deal.Targets, 1)
	assert.Equal(t, "purchasePrice", deal.Targets[0].Param)
	assert.Equal(t, sensitivity.MetricIRR, deal.Targets[0].Metric)
	assert.NoError(t, deal.Targets[0].Validate())

	assert.Empty(t, deal.ValidateDeal())
}

func TestLoadDealErrors(t *testing.T) {
	_, err := LoadDeal(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeFile(t, "bad-sector.yaml", "name: X\nsector: casino\n")
	_, err = LoadDeal(path)
	assert.ErrorContains(t, err, "casino")

	path = writeFile(t, "bad-override.yaml", `
name: X
scenarios:
  - name: Broken
    active: true
    overrides:
      capRate: 0.05
`)
	_, err = LoadDeal(path)
	assert.ErrorContains(t, err, "not supported")
}

func TestValidateDealWarnings(t *testing.T) {
	price, loan, rate, vacancy := 10000000.0, 6000000.0, 0.06, 7.0
	deal := &Deal{
		Scenarios: []sensitivity.Scenario{{Name: "Off"}},
		Waterfall: &waterfall.Structure{LPEquity: 1000000},
	}
	deal.Inputs.PurchasePrice = &price
	deal.Inputs.LoanAmount = &loan
	deal.Inputs.InterestRate = &rate
	deal.Inputs.VacancyRate = &vacancy

	warnings := deal.ValidateDeal()
	require.Len(t, warnings, 4)
	assert.Equal(t, "deal has no name", warnings[0])
	assert.Contains(t, warnings[1], "vacancyRate")
	assert.Equal(t, "no scenarios are active", warnings[2])
	assert.Contains(t, warnings[3], "waterfall equity of 1000000 differs from deal equity of 4000000")
}

func TestWriteDealRoundTrip(t *testing.T) {
	deal, err := LoadDeal(writeFile(t, "deal.yaml", sampleDeal))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "copy.yaml")
	require.NoError(t, WriteDeal(out, deal))

	reloaded, err := LoadDeal(out)
	require.NoError(t, err)
	assert.Equal(t, deal.Name, reloaded.Name)
	assert.Equal(t, *deal.Inputs.LoanAmount, *reloaded.Inputs.LoanAmount)
	assert.Equal(t, deal.Scenarios[1].Overrides, reloaded.Scenarios[1].Overrides)
	assert.Equal(t, len(deal.Waterfall.Tiers), len(reloaded.Waterfall.Tiers))
}
