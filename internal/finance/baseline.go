package finance

import "github.com/boddenberg/driver-finance-go/internal/domain"

// ComputeBaseline averages the driver's history, leaving out the record
// under evaluation. Records are matched against exclude by ID, or by
// user and date when exclude has not been saved yet. It returns nil when
// nothing is left to compare against. Records whose figures are not
// finite are skipped.
func ComputeBaseline(history []domain.DailyRecord, exclude *domain.DailyRecord) *domain.Baseline {
	var (
		n            int
		marginSum    float64
		perKmSum     float64
		perKmCount   int
		perHourSum   float64
		perHourCount int
	)

	for i := range history {
		rec := &history[i]
		if isSameRecord(rec, exclude) {
			continue
		}
		m := MetricsOf(rec)
		if NonFiniteField(rec.Costs, m) != "" {
			continue
		}

		n++
		marginSum += m.ProfitMargin
		if rec.KmDriven > 0 {
			perKmSum += m.ProfitPerKm
			perKmCount++
		}
		if m.ProfitPerHour != nil {
			perHourSum += *m.ProfitPerHour
			perHourCount++
		}
	}

	if n == 0 {
		return nil
	}
	return &domain.Baseline{
		AvgProfitPerKm:   safeDiv(perKmSum, float64(perKmCount)),
		AvgProfitPerHour: safeDiv(perHourSum, float64(perHourCount)),
		AvgProfitMargin:  marginSum / float64(n),
		SampleSize:       n,
	}
}

func isSameRecord(rec, exclude *domain.DailyRecord) bool {
	if exclude == nil {
		return false
	}
	if exclude.ID != "" && rec.ID == exclude.ID {
		return true
	}
	return rec.UserID == exclude.UserID && rec.RecordDate == exclude.RecordDate
}
