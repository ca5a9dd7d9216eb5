package domain

import "time"

// ============================================================
// Cost configuration versions
// ============================================================

// ConfigVersion is a dated snapshot of the driver's cost parameters.
// The version active on a date is the one with the greatest
// EffectiveDate on or before it.
type ConfigVersion struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	EffectiveDate string `json:"effective_date"`

	CarModel             string  `json:"car_model"`
	GasPrice             float64 `json:"gas_price"`
	FuelEfficiency       float64 `json:"fuel_efficiency"`
	MaintenanceCostPerKm float64 `json:"maintenance_cost_per_km"`
	AppFeePerRide        float64 `json:"app_fee_per_ride"`
	MonthlyCarWash       float64 `json:"monthly_car_wash"`
	AvgWorkDaysPerMonth  int     `json:"avg_work_days_per_month"`
	DebitFeePercent      float64 `json:"debit_fee_percent"`
	CreditFeePercent     float64 `json:"credit_fee_percent"`
	AnnualIPVA           float64 `json:"annual_ipva"`
	AnnualInsurance      float64 `json:"annual_insurance"`
	WorkDaysPerYear      int     `json:"work_days_per_year"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConfigVersionInput is the user-editable part of a config version.
type ConfigVersionInput struct {
	EffectiveDate        string  `json:"effective_date" validate:"required,datetime=2006-01-02"`
	CarModel             string  `json:"car_model" validate:"required,max=120"`
	GasPrice             float64 `json:"gas_price" validate:"gte=0"`
	FuelEfficiency       float64 `json:"fuel_efficiency" validate:"gte=0"`
	MaintenanceCostPerKm float64 `json:"maintenance_cost_per_km" validate:"gte=0"`
	AppFeePerRide        float64 `json:"app_fee_per_ride" validate:"gte=0"`
	MonthlyCarWash       float64 `json:"monthly_car_wash" validate:"gte=0"`
	AvgWorkDaysPerMonth  int     `json:"avg_work_days_per_month" validate:"gte=0,lte=31"`
	DebitFeePercent      float64 `json:"debit_fee_percent" validate:"gte=0,lte=100"`
	CreditFeePercent     float64 `json:"credit_fee_percent" validate:"gte=0,lte=100"`
	AnnualIPVA           float64 `json:"annual_ipva" validate:"gte=0"`
	AnnualInsurance      float64 `json:"annual_insurance" validate:"gte=0"`
	WorkDaysPerYear      int     `json:"work_days_per_year" validate:"gte=0,lte=366"`
}

// Validate checks what the struct tags cannot.
func (in *ConfigVersionInput) Validate() error {
	if _, err := time.Parse(DateLayout, in.EffectiveDate); err != nil {
		return &ErrValidation{Field: "effective_date", Message: "data inválida, use AAAA-MM-DD"}
	}
	if in.CarModel == "" {
		return &ErrValidation{Field: "car_model", Message: "obrigatório"}
	}
	return nil
}

// Apply copies the input onto v, leaving identity and timestamps untouched.
func (in *ConfigVersionInput) Apply(v *ConfigVersion) {
	v.EffectiveDate = in.EffectiveDate
	v.CarModel = in.CarModel
	v.GasPrice = in.GasPrice
	v.FuelEfficiency = in.FuelEfficiency
	v.MaintenanceCostPerKm = in.MaintenanceCostPerKm
	v.AppFeePerRide = in.AppFeePerRide
	v.MonthlyCarWash = in.MonthlyCarWash
	v.AvgWorkDaysPerMonth = in.AvgWorkDaysPerMonth
	v.DebitFeePercent = in.DebitFeePercent
	v.CreditFeePercent = in.CreditFeePercent
	v.AnnualIPVA = in.AnnualIPVA
	v.AnnualInsurance = in.AnnualInsurance
	v.WorkDaysPerYear = in.WorkDaysPerYear
}

// Default cost parameters offered when a driver sets up for the first time.
const (
	DefaultCarModel             = "Chevrolet Onix 2020 1.0 Turbo"
	DefaultGasPrice             = 6.04
	DefaultFuelEfficiency       = 11.5
	DefaultMaintenanceCostPerKm = 0.20
	DefaultAppFeePerRide        = 1.50
	DefaultMonthlyCarWash       = 25.00
	DefaultAvgWorkDaysPerMonth  = 26
	DefaultDebitFeePercent      = 1.99
	DefaultCreditFeePercent     = 3.99
	DefaultWorkDaysPerYear      = 260
)

// DefaultConfigInput returns the setup template effective on the given date.
func DefaultConfigInput(effectiveDate string) ConfigVersionInput {
	return ConfigVersionInput{
		EffectiveDate:        effectiveDate,
		CarModel:             DefaultCarModel,
		GasPrice:             DefaultGasPrice,
		FuelEfficiency:       DefaultFuelEfficiency,
		MaintenanceCostPerKm: DefaultMaintenanceCostPerKm,
		AppFeePerRide:        DefaultAppFeePerRide,
		MonthlyCarWash:       DefaultMonthlyCarWash,
		AvgWorkDaysPerMonth:  DefaultAvgWorkDaysPerMonth,
		DebitFeePercent:      DefaultDebitFeePercent,
		CreditFeePercent:     DefaultCreditFeePercent,
		WorkDaysPerYear:      DefaultWorkDaysPerYear,
	}
}

// ConfigVersionView is a version as listed to the driver.
type ConfigVersionView struct {
	ConfigVersion
	Active         bool     `json:"active"`
	DailyIPVA      float64  `json:"daily_ipva_cost"`
	DailyInsurance float64  `json:"daily_insurance_cost"`
	DailyFixedCost float64  `json:"daily_fixed_cost"`
	Warnings       []string `json:"warnings,omitempty"`
}

// LegacySettings is the single undated settings row that predates
// config versions.
type LegacySettings struct {
	UserID               string  `json:"user_id"`
	CarModel             string  `json:"car_model"`
	GasPrice             float64 `json:"gas_price"`
	FuelEfficiency       float64 `json:"fuel_efficiency"`
	MaintenanceCostPerKm float64 `json:"maintenance_cost_per_km"`
	AppFeePerRide        float64 `json:"app_fee_per_ride"`
	MonthlyCarWash       float64 `json:"monthly_car_wash"`
	AvgWorkDaysPerMonth  int     `json:"avg_work_days_per_month"`
}

// ToConfigInput converts legacy settings into a version effective on the
// given date. Fields the legacy row never had take the setup defaults.
func (s *LegacySettings) ToConfigInput(effectiveDate string) ConfigVersionInput {
	in := DefaultConfigInput(effectiveDate)
	if s.CarModel != "" {
		in.CarModel = s.CarModel
	}
	in.GasPrice = s.GasPrice
	in.FuelEfficiency = s.FuelEfficiency
	in.MaintenanceCostPerKm = s.MaintenanceCostPerKm
	in.AppFeePerRide = s.AppFeePerRide
	in.MonthlyCarWash = s.MonthlyCarWash
	in.AvgWorkDaysPerMonth = s.AvgWorkDaysPerMonth
	return in
}
