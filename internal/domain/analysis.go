package domain

// ============================================================
// API responses
// ============================================================

// SaveRecordResult is returned when a record is saved or previewed.
type SaveRecordResult struct {
	Record     *DailyRecord   `json:"record"`
	Metrics    ProfitMetrics  `json:"metrics"`
	Payments   PaymentSummary `json:"payments"`
	Advisories []string       `json:"advisories"`
	Created    bool           `json:"created"`
}

// DayAnalysis is the evaluation of one day against the driver's history.
type DayAnalysis struct {
	Date           string          `json:"date"`
	Record         *DailyRecord    `json:"record,omitempty"`
	Metrics        *ProfitMetrics  `json:"metrics,omitempty"`
	Baseline       *Baseline       `json:"baseline,omitempty"`
	Classification *Classification `json:"classification,omitempty"`
	Insights       []Insight       `json:"insights"`
}

// Dashboard is the home screen payload.
type Dashboard struct {
	DayAnalysis
	Config *ConfigVersion `json:"config"`
	Month  PeriodTotals   `json:"month"`
}

// WeeklyReport summarizes a Monday to Sunday week.
type WeeklyReport struct {
	WeekStart      string          `json:"week_start"`
	WeekEnd        string          `json:"week_end"`
	Totals         PeriodTotals    `json:"totals"`
	AverageDay     *ProfitMetrics  `json:"average_day,omitempty"`
	Classification *Classification `json:"classification,omitempty"`
	Records        []DailyRecord   `json:"records"`
}

// DaySummary is one line of a monthly report.
type DaySummary struct {
	Date              string           `json:"date"`
	GrossRevenue      float64          `json:"gross_revenue"`
	OperationalProfit float64          `json:"operational_profit"`
	NetProfit         float64          `json:"net_profit"`
	KmDriven          float64          `json:"km_driven"`
	TotalRides        int              `json:"total_rides"`
	Label             PerformanceLabel `json:"label"`
}

// MonthlyReport summarizes a calendar month.
type MonthlyReport struct {
	Month  string       `json:"month"`
	Totals PeriodTotals `json:"totals"`
	Days   []DaySummary `json:"days"`
}
