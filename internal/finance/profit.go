package finance

import "github.com/boddenberg/driver-finance-go/internal/domain"

// ComputeProfit derives profit figures from a record and its costs.
// Ratios with a zero divisor are 0, except the per-hour and per-ride
// rates which are left nil.
func ComputeProfit(rec *domain.DailyRecord, costs domain.CostBreakdown) domain.ProfitMetrics {
	op := rec.GrossRevenue - costs.TotalOperationalCosts

	m := domain.ProfitMetrics{
		GrossRevenue:      rec.GrossRevenue,
		OperationalProfit: op,
		NetProfit:         op - rec.PersonalExpenses,
		ProfitMargin:      safeDiv(op, rec.GrossRevenue) * 100,
		ProfitPerKm:       safeDiv(op, rec.KmDriven),
		FuelCostPercent:   safeDiv(costs.Fuel, rec.GrossRevenue) * 100,
	}
	if h, ok := rec.WorkingHours(); ok {
		perHour := op / h
		m.ProfitPerHour = &perHour
	}
	if rec.TotalRides > 0 {
		perRide := rec.GrossRevenue / float64(rec.TotalRides)
		m.RevenuePerRide = &perRide
	}
	return m
}

// Apply computes costs and profit for rec under cfg and stores them on
// the record, binding it to cfg.
func Apply(rec *domain.DailyRecord, cfg *domain.ConfigVersion) domain.ProfitMetrics {
	rec.Costs = ComputeCosts(rec, cfg)
	m := ComputeProfit(rec, rec.Costs)
	rec.OperationalProfit = m.OperationalProfit
	rec.NetProfit = m.NetProfit
	rec.ConfigVersionID = cfg.ID
	return m
}

// MetricsOf returns the figures of a saved record from its stored costs.
func MetricsOf(rec *domain.DailyRecord) domain.ProfitMetrics {
	return ComputeProfit(rec, rec.Costs)
}

// NonFiniteField names the first cost or profit figure that is NaN or
// infinite, or returns "" when all are finite.
func NonFiniteField(c domain.CostBreakdown, m domain.ProfitMetrics) string {
	figures := []struct {
		field string
		value float64
	}{
		{"fuel_cost", c.Fuel},
		{"maintenance_cost", c.Maintenance},
		{"app_fees", c.AppFees},
		{"car_wash_cost", c.CarWash},
		{"debit_fee", c.DebitFee},
		{"credit_fee", c.CreditFee},
		{"daily_ipva_cost", c.DailyIPVA},
		{"daily_insurance_cost", c.DailyInsurance},
		{"total_operational_costs", c.TotalOperationalCosts},
		{"operational_profit", m.OperationalProfit},
		{"net_profit", m.NetProfit},
		{"profit_margin", m.ProfitMargin},
		{"profit_per_km", m.ProfitPerKm},
		{"fuel_cost_percent", m.FuelCostPercent},
	}
	for _, f := range figures {
		if !finite(f.value) {
			return f.field
		}
	}
	if m.ProfitPerHour != nil && !finite(*m.ProfitPerHour) {
		return "profit_per_hour"
	}
	if m.RevenuePerRide != nil && !finite(*m.RevenuePerRide) {
		return "revenue_per_ride"
	}
	return ""
}
