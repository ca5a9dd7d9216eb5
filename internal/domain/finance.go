package domain

// ============================================================
// Computed figures
// ============================================================

// CostBreakdown is the per-day operational cost of a record under a config.
type CostBreakdown struct {
	Fuel                  float64 `json:"fuel_cost"`
	Maintenance           float64 `json:"maintenance_cost"`
	AppFees               float64 `json:"app_fees"`
	CarWash               float64 `json:"car_wash_cost"`
	DebitFee              float64 `json:"debit_fee"`
	CreditFee             float64 `json:"credit_fee"`
	DailyIPVA             float64 `json:"daily_ipva_cost"`
	DailyInsurance        float64 `json:"daily_insurance_cost"`
	TotalOperationalCosts float64 `json:"total_operational_costs"`
}

// PaymentMachineFees is the card machine share of the costs.
func (c CostBreakdown) PaymentMachineFees() float64 {
	return c.DebitFee + c.CreditFee
}

// ProfitMetrics are the figures derived from a record and its costs.
// ProfitPerHour and RevenuePerRide are nil when their divisor is missing.
type ProfitMetrics struct {
	GrossRevenue      float64  `json:"gross_revenue"`
	OperationalProfit float64  `json:"operational_profit"`
	NetProfit         float64  `json:"net_profit"`
	ProfitMargin      float64  `json:"profit_margin"`
	ProfitPerKm       float64  `json:"profit_per_km"`
	ProfitPerHour     *float64 `json:"profit_per_hour"`
	FuelCostPercent   float64  `json:"fuel_cost_percent"`
	RevenuePerRide    *float64 `json:"revenue_per_ride"`
}

// Baseline holds the driver's historical averages.
// AvgProfitPerHour is 0 when no comparison day had working hours.
type Baseline struct {
	AvgProfitPerKm   float64 `json:"avg_profit_per_km"`
	AvgProfitPerHour float64 `json:"avg_profit_per_hour"`
	AvgProfitMargin  float64 `json:"avg_profit_margin"`
	SampleSize       int     `json:"sample_size"`
}

// PerformanceLabel is the three-tier day rating.
type PerformanceLabel string

const (
	LabelGood    PerformanceLabel = "Bom"
	LabelAverage PerformanceLabel = "Médio"
	LabelPoor    PerformanceLabel = "Ruim"
)

// ClassificationPolicy tells whether a day was rated against history or
// against fixed thresholds.
type ClassificationPolicy string

const (
	PolicyRelative ClassificationPolicy = "relative"
	PolicyAbsolute ClassificationPolicy = "absolute"
)

// Classification is the rating of a day with a readable explanation.
type Classification struct {
	Label       PerformanceLabel     `json:"label"`
	Explanation string               `json:"explanation"`
	Policy      ClassificationPolicy `json:"policy"`
}

// InsightSeverity grades an insight.
type InsightSeverity string

const (
	SeveritySuccess InsightSeverity = "success"
	SeverityWarning InsightSeverity = "warning"
	SeverityError   InsightSeverity = "error"
	SeverityInfo    InsightSeverity = "info"
)

// Style is the presentation token for a severity.
func (s InsightSeverity) Style() string {
	switch s {
	case SeveritySuccess:
		return "positive"
	case SeverityWarning:
		return "caution"
	case SeverityError:
		return "negative"
	default:
		return "neutral"
	}
}

// Insight is a discrete observation about a day. Never persisted.
type Insight struct {
	Code     string          `json:"code"`
	Severity InsightSeverity `json:"severity"`
	Style    string          `json:"style"`
	Title    string          `json:"title"`
	Message  string          `json:"message"`
}

// PeriodTotals sums a set of records and averages them per day.
type PeriodTotals struct {
	RecordCount int `json:"record_count"`

	GrossRevenue          float64 `json:"gross_revenue"`
	TotalOperationalCosts float64 `json:"total_operational_costs"`
	OperationalProfit     float64 `json:"operational_profit"`
	PersonalExpenses      float64 `json:"personal_expenses"`
	NetProfit             float64 `json:"net_profit"`
	KmDriven              float64 `json:"km_driven"`
	HoursOnline           float64 `json:"hours_online"`
	HoursWorking          float64 `json:"hours_working"`
	TotalRides            int     `json:"total_rides"`

	// WorkedOperationalProfit sums operational profit over the records
	// that carry working hours, the numerator of the period's hourly rate.
	WorkedOperationalProfit float64 `json:"-"`

	AvgGrossRevenue          float64 `json:"avg_gross_revenue"`
	AvgTotalOperationalCosts float64 `json:"avg_total_operational_costs"`
	AvgOperationalProfit     float64 `json:"avg_operational_profit"`
	AvgPersonalExpenses      float64 `json:"avg_personal_expenses"`
	AvgNetProfit             float64 `json:"avg_net_profit"`
	AvgKmDriven              float64 `json:"avg_km_driven"`
	AvgHoursOnline           float64 `json:"avg_hours_online"`
	AvgHoursWorking          float64 `json:"avg_hours_working"`
}

// PaymentSummary reconciles what was itemized as received against gross
// revenue. Advisory is empty when they agree.
type PaymentSummary struct {
	Kind          PaymentKind `json:"kind"`
	TotalReceived float64     `json:"total_received"`
	Difference    float64     `json:"difference"`
	DebitFee      float64     `json:"debit_fee"`
	CreditFee     float64     `json:"credit_fee"`
	NetDebit      float64     `json:"net_debit"`
	NetCredit     float64     `json:"net_credit"`
	CashPix       float64     `json:"cash_pix"`
	TotalNet      float64     `json:"total_net"`
	Consistent    bool        `json:"consistent"`
	Advisory      string      `json:"advisory,omitempty"`
}
