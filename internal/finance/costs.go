// Package finance holds the pure computations over daily records: cost
// breakdown, profit figures, historical baselines, day classification,
// insights and period rollups. Nothing here does I/O.
package finance

import "github.com/boddenberg/driver-finance-go/internal/domain"

// ComputeCosts returns the operational cost of a record under cfg.
// Personal expenses are not an operational cost.
func ComputeCosts(rec *domain.DailyRecord, cfg *domain.ConfigVersion) domain.CostBreakdown {
	c := domain.CostBreakdown{
		Fuel:           safeDiv(rec.KmDriven, cfg.FuelEfficiency) * cfg.GasPrice,
		Maintenance:    rec.KmDriven * cfg.MaintenanceCostPerKm,
		AppFees:        float64(rec.TotalRides) * cfg.AppFeePerRide,
		CarWash:        safeDiv(cfg.MonthlyCarWash, float64(cfg.AvgWorkDaysPerMonth)),
		DailyIPVA:      safeDiv(cfg.AnnualIPVA, float64(cfg.WorkDaysPerYear)),
		DailyInsurance: safeDiv(cfg.AnnualInsurance, float64(cfg.WorkDaysPerYear)),
	}

	// Only the by-method shape goes through the card machine.
	if m := rec.Payments.ByMethod; m != nil {
		c.DebitFee = m.Debit * cfg.DebitFeePercent / 100
		c.CreditFee = m.Credit * cfg.CreditFeePercent / 100
	}

	c.TotalOperationalCosts = c.Fuel + c.Maintenance + c.AppFees + c.CarWash +
		c.PaymentMachineFees() + c.DailyIPVA + c.DailyInsurance
	return c
}

// DailyFixedCosts returns the per-working-day share of IPVA and insurance.
func DailyFixedCosts(cfg *domain.ConfigVersion) (ipva, insurance float64) {
	return safeDiv(cfg.AnnualIPVA, float64(cfg.WorkDaysPerYear)),
		safeDiv(cfg.AnnualInsurance, float64(cfg.WorkDaysPerYear))
}

// ConfigWarnings lists data-entry gaps that make costs look lower than
// they are.
func ConfigWarnings(cfg *domain.ConfigVersion) []string {
	var warnings []string
	if cfg.AnnualIPVA == 0 || cfg.AnnualInsurance == 0 {
		warnings = append(warnings, "⚠️ Atenção: IPVA ou Seguro não configurados. O custo real do veículo pode estar subestimado.")
	}
	if cfg.FuelEfficiency == 0 {
		warnings = append(warnings, "Consumo do veículo não informado. O custo de combustível será considerado zero.")
	}
	return warnings
}

// safeDiv returns 0 for a zero divisor.
func safeDiv(n, d float64) float64 {
	if d == 0 {
		return 0
	}
	return n / d
}
