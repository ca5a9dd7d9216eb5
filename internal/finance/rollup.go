package finance

import "github.com/boddenberg/driver-finance-go/internal/domain"

// Rollup sums the stored figures of records, already filtered to the
// period by the caller, and averages them per record.
func Rollup(records []domain.DailyRecord) domain.PeriodTotals {
	var t domain.PeriodTotals
	for i := range records {
		r := &records[i]
		t.GrossRevenue += r.GrossRevenue
		t.TotalOperationalCosts += r.Costs.TotalOperationalCosts
		t.OperationalProfit += r.OperationalProfit
		t.PersonalExpenses += r.PersonalExpenses
		t.NetProfit += r.NetProfit
		t.KmDriven += r.KmDriven
		t.TotalRides += r.TotalRides
		if r.HoursOnline != nil {
			t.HoursOnline += *r.HoursOnline
		}
		if h, ok := r.WorkingHours(); ok {
			t.HoursWorking += h
			t.WorkedOperationalProfit += r.OperationalProfit
		}
	}

	t.RecordCount = len(records)
	if t.RecordCount == 0 {
		return t
	}
	n := float64(t.RecordCount)
	t.AvgGrossRevenue = t.GrossRevenue / n
	t.AvgTotalOperationalCosts = t.TotalOperationalCosts / n
	t.AvgOperationalProfit = t.OperationalProfit / n
	t.AvgPersonalExpenses = t.PersonalExpenses / n
	t.AvgNetProfit = t.NetProfit / n
	t.AvgKmDriven = t.KmDriven / n
	t.AvgHoursOnline = t.HoursOnline / n
	t.AvgHoursWorking = t.HoursWorking / n
	return t
}

// AverageDay builds the figures of a period's average day, for rating a
// week as a whole. It returns nil for an empty period.
func AverageDay(t domain.PeriodTotals) *domain.ProfitMetrics {
	if t.RecordCount == 0 {
		return nil
	}
	m := &domain.ProfitMetrics{
		GrossRevenue:      t.AvgGrossRevenue,
		OperationalProfit: t.AvgOperationalProfit,
		NetProfit:         t.AvgNetProfit,
		ProfitMargin:      safeDiv(t.AvgOperationalProfit, t.AvgGrossRevenue) * 100,
		ProfitPerKm:       safeDiv(t.AvgOperationalProfit, t.AvgKmDriven),
	}
	if t.HoursWorking > 0 {
		perHour := t.WorkedOperationalProfit / t.HoursWorking
		m.ProfitPerHour = &perHour
	}
	if t.TotalRides > 0 {
		perRide := t.GrossRevenue / float64(t.TotalRides)
		m.RevenuePerRide = &perRide
	}
	return m
}
