package finance_test

import (
	"testing"

	"github.com/boddenberg/driver-finance-go/internal/domain"
	"github.com/boddenberg/driver-finance-go/internal/finance"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ordinaryDay has a 35% margin, 20% fuel share and R$ 20 per ride, which
// keeps every absolute rule quiet.
func ordinaryDay() *domain.DailyRecord {
	return &domain.DailyRecord{
		ID:           "today",
		UserID:       "user-1",
		RecordDate:   "2024-03-10",
		GrossRevenue: 200,
		KmDriven:     50,
		TotalRides:   10,
		Costs: domain.CostBreakdown{
			Fuel:                  40,
			TotalOperationalCosts: 130,
		},
		OperationalProfit: 70,
		NetProfit:         70,
	}
}

func codes(insights []domain.Insight) []string {
	out := make([]string, 0, len(insights))
	for _, in := range insights {
		out = append(out, in.Code)
	}
	return out
}

func TestGenerateInsights_NoRecord(t *testing.T) {
	month := make([]domain.DailyRecord, 6)
	got := finance.GenerateInsights(nil, &domain.Baseline{AvgProfitPerKm: 2}, month)

	require.Len(t, got, 1)
	assert.Equal(t, finance.InsightNoRecord, got[0].Code)
	assert.Equal(t, domain.SeverityInfo, got[0].Severity)
}

func TestGenerateInsights_WithinExpected(t *testing.T) {
	got := finance.GenerateInsights(ordinaryDay(), nil, nil)

	require.Len(t, got, 1)
	assert.Equal(t, finance.InsightWithinExpected, got[0].Code)
	assert.Equal(t, "Tudo Certo!", got[0].Title)
	assert.Equal(t, "neutral", got[0].Style)
}

func TestGenerateInsights_RevenuePerRide(t *testing.T) {
	tests := []struct {
		name    string
		revenue float64
		want    string
	}{
		{"low value rides", 100, finance.InsightRidesLowValue},
		{"profitable rides", 300, finance.InsightRidesProfitable},
		{"neither", 200, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ordinaryDay()
			rec.GrossRevenue = tt.revenue
			rec.TotalRides = 10

			got := codes(finance.GenerateInsights(rec, nil, nil))
			if tt.want == "" {
				assert.NotContains(t, got, finance.InsightRidesLowValue)
				assert.NotContains(t, got, finance.InsightRidesProfitable)
				return
			}
			assert.Contains(t, got, tt.want)
		})
	}
}

func TestGenerateInsights_RevenuePerRideMessage(t *testing.T) {
	rec := ordinaryDay()
	rec.GrossRevenue = 100

	for _, in := range finance.GenerateInsights(rec, nil, nil) {
		if in.Code == finance.InsightRidesLowValue {
			assert.Equal(t, domain.SeverityWarning, in.Severity)
			assert.Equal(t, "Média de R$ 10.00 por corrida. Evite corridas muito curtas para aumentar o lucro.", in.Message)
			return
		}
	}
	t.Fatal("expected the low value rides insight")
}

func TestGenerateInsights_ZeroRidesSkipsPerRideRule(t *testing.T) {
	rec := ordinaryDay()
	rec.TotalRides = 0

	got := codes(finance.GenerateInsights(rec, nil, nil))
	assert.NotContains(t, got, finance.InsightRidesLowValue)
	assert.NotContains(t, got, finance.InsightRidesProfitable)
}

func TestGenerateInsights_PerKmAgainstBaseline(t *testing.T) {
	rec := ordinaryDay() // 1.40/km

	high := codes(finance.GenerateInsights(rec, &domain.Baseline{AvgProfitPerKm: 1.0}, nil))
	assert.Contains(t, high, finance.InsightPerKmHigh)

	low := codes(finance.GenerateInsights(rec, &domain.Baseline{AvgProfitPerKm: 2.0}, nil))
	assert.Contains(t, low, finance.InsightPerKmLow)

	none := codes(finance.GenerateInsights(rec, &domain.Baseline{AvgProfitPerKm: 0}, nil))
	assert.NotContains(t, none, finance.InsightPerKmHigh)
	assert.NotContains(t, none, finance.InsightPerKmLow)
}

func TestGenerateInsights_PerHourNeedsBothSides(t *testing.T) {
	rec := ordinaryDay()
	base := &domain.Baseline{AvgProfitPerHour: 10}

	// no hours today
	got := codes(finance.GenerateInsights(rec, base, nil))
	assert.NotContains(t, got, finance.InsightPerHourHigh)
	assert.NotContains(t, got, finance.InsightPerHourLow)

	rec.HoursWorking = f64(3.5) // 20/h
	got = codes(finance.GenerateInsights(rec, base, nil))
	assert.Contains(t, got, finance.InsightPerHourHigh)

	rec.HoursWorking = f64(10) // 7/h
	for _, in := range finance.GenerateInsights(rec, base, nil) {
		if in.Code == finance.InsightPerHourLow {
			assert.Equal(t, domain.SeverityError, in.Severity)
		}
	}
	assert.Contains(t, codes(finance.GenerateInsights(rec, base, nil)), finance.InsightPerHourLow)

	// no baseline hours
	got = codes(finance.GenerateInsights(rec, &domain.Baseline{}, nil))
	assert.NotContains(t, got, finance.InsightPerHourLow)
}

func TestGenerateInsights_Margin(t *testing.T) {
	rec := ordinaryDay() // 35%

	relative := codes(finance.GenerateInsights(rec, &domain.Baseline{AvgProfitMargin: 30}, nil))
	assert.Contains(t, relative, finance.InsightMarginHigh)

	below := codes(finance.GenerateInsights(rec, &domain.Baseline{AvgProfitMargin: 45}, nil))
	assert.Contains(t, below, finance.InsightMarginLow)

	rec.Costs.TotalOperationalCosts = 100 // 50%
	absolute := codes(finance.GenerateInsights(rec, nil, nil))
	assert.Contains(t, absolute, finance.InsightMarginHigh)

	rec.Costs.TotalOperationalCosts = 150 // 25%
	absoluteLow := codes(finance.GenerateInsights(rec, nil, nil))
	assert.Contains(t, absoluteLow, finance.InsightMarginLow)
}

func TestGenerateInsights_ZeroRevenueSkipsRatioRules(t *testing.T) {
	rec := ordinaryDay()
	rec.GrossRevenue = 0
	rec.TotalRides = 0
	rec.KmDriven = 0

	got := finance.GenerateInsights(rec, nil, nil)
	require.Len(t, got, 1)
	assert.Equal(t, finance.InsightWithinExpected, got[0].Code)
}

func TestGenerateInsights_FuelShare(t *testing.T) {
	rec := ordinaryDay()
	rec.Costs.Fuel = 60 // 30%
	assert.Contains(t, codes(finance.GenerateInsights(rec, nil, nil)), finance.InsightFuelHigh)

	rec.Costs.Fuel = 20 // 10%
	assert.Contains(t, codes(finance.GenerateInsights(rec, nil, nil)), finance.InsightFuelLow)
}

func TestGenerateInsights_MonthNeedsFiveRecords(t *testing.T) {
	month := make([]domain.DailyRecord, 4)
	for i := range month {
		month[i].OperationalProfit = 10
	}

	got := codes(finance.GenerateInsights(ordinaryDay(), nil, month))
	assert.NotContains(t, got, finance.InsightMonthProfitLow)
	assert.NotContains(t, got, finance.InsightMonthProfitHigh)

	month = append(month, domain.DailyRecord{OperationalProfit: 10})
	got = codes(finance.GenerateInsights(ordinaryDay(), nil, month))
	assert.Contains(t, got, finance.InsightMonthProfitLow)
}

func TestGenerateInsights_MonthHighProfit(t *testing.T) {
	month := make([]domain.DailyRecord, 5)
	for i := range month {
		month[i].OperationalProfit = 200
	}

	got := codes(finance.GenerateInsights(ordinaryDay(), nil, month))
	assert.Contains(t, got, finance.InsightMonthProfitHigh)
	assert.NotContains(t, got, finance.InsightWithinExpected)
}

func TestGenerateInsights_Deterministic(t *testing.T) {
	base := &domain.Baseline{AvgProfitPerKm: 1, AvgProfitMargin: 30, AvgProfitPerHour: 5}
	rec := ordinaryDay()
	rec.HoursWorking = f64(4)

	assert.Equal(t, finance.GenerateInsights(rec, base, nil), finance.GenerateInsights(rec, base, nil))
}
