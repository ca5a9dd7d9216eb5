package domain

import (
	"math"
	"time"
)

// DateLayout is the calendar-date format used for record and config dates.
const DateLayout = "2006-01-02"

// ============================================================
// Daily records
// ============================================================

// DailyRecord is one work session of a driver. There is at most one record
// per (user, record_date). Cost and profit fields are computed when the
// record is saved and are never recomputed afterwards.
type DailyRecord struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	RecordDate string `json:"record_date"`

	GrossRevenue float64  `json:"gross_revenue"`
	KmDriven     float64  `json:"km_driven"`
	TotalRides   int      `json:"total_rides"`
	HoursOnline  *float64 `json:"hours_online,omitempty"`
	HoursWorking *float64 `json:"hours_working,omitempty"`
	Payments     Payments `json:"payments"`

	PersonalExpenses            float64 `json:"personal_expenses"`
	PersonalExpensesDescription string  `json:"personal_expenses_description,omitempty"`

	Costs             CostBreakdown `json:"costs"`
	OperationalProfit float64       `json:"operational_profit"`
	NetProfit         float64       `json:"net_profit"`
	ConfigVersionID   string        `json:"config_version_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Date parses RecordDate.
func (r *DailyRecord) Date() (time.Time, error) {
	return time.Parse(DateLayout, r.RecordDate)
}

// WorkingHours returns hours_working when it is present and positive.
func (r *DailyRecord) WorkingHours() (float64, bool) {
	if r.HoursWorking == nil || *r.HoursWorking <= 0 {
		return 0, false
	}
	return *r.HoursWorking, true
}

// RecordInput is the user-supplied part of a daily record.
type RecordInput struct {
	RecordDate   string   `json:"record_date" validate:"required,datetime=2006-01-02"`
	GrossRevenue float64  `json:"gross_revenue" validate:"gte=0"`
	KmDriven     float64  `json:"km_driven" validate:"gte=0"`
	TotalRides   int      `json:"total_rides" validate:"gte=0"`
	HoursOnline  *float64 `json:"hours_online,omitempty" validate:"omitempty,gte=0,lte=24"`
	HoursWorking *float64 `json:"hours_working,omitempty" validate:"omitempty,gte=0,lte=24"`
	Payments     Payments `json:"payments"`

	PersonalExpenses            float64 `json:"personal_expenses" validate:"gte=0"`
	PersonalExpensesDescription string  `json:"personal_expenses_description,omitempty" validate:"max=500"`
}

// Validate checks the invariants the struct tags cannot express.
func (in *RecordInput) Validate() error {
	if _, err := time.Parse(DateLayout, in.RecordDate); err != nil {
		return &ErrValidation{Field: "record_date", Message: "data inválida, use AAAA-MM-DD"}
	}
	amounts := []struct {
		field string
		value float64
	}{
		{"gross_revenue", in.GrossRevenue},
		{"km_driven", in.KmDriven},
		{"personal_expenses", in.PersonalExpenses},
	}
	for _, a := range amounts {
		if a.value < 0 || math.IsNaN(a.value) || math.IsInf(a.value, 0) {
			return &ErrValidation{Field: a.field, Message: "deve ser um número maior ou igual a zero"}
		}
	}
	if in.TotalRides < 0 {
		return &ErrValidation{Field: "total_rides", Message: "deve ser maior ou igual a zero"}
	}
	if in.HoursOnline != nil && *in.HoursOnline < 0 {
		return &ErrValidation{Field: "hours_online", Message: "deve ser maior ou igual a zero"}
	}
	if in.HoursWorking != nil && *in.HoursWorking < 0 {
		return &ErrValidation{Field: "hours_working", Message: "deve ser maior ou igual a zero"}
	}
	return in.Payments.Validate()
}

// ToRecord builds an unsaved record for userID from the input.
// Derived fields are left zero.
func (in *RecordInput) ToRecord(userID string) *DailyRecord {
	return &DailyRecord{
		UserID:                      userID,
		RecordDate:                  in.RecordDate,
		GrossRevenue:                in.GrossRevenue,
		KmDriven:                    in.KmDriven,
		TotalRides:                  in.TotalRides,
		HoursOnline:                 in.HoursOnline,
		HoursWorking:                in.HoursWorking,
		Payments:                    in.Payments,
		PersonalExpenses:            in.PersonalExpenses,
		PersonalExpensesDescription: in.PersonalExpensesDescription,
	}
}

// RecordQuery filters a range listing. Empty From/To leave that side open.
type RecordQuery struct {
	From      string
	To        string
	Ascending bool
	Limit     int
}

// ============================================================
// Payment breakdown
// ============================================================

// PaymentKind names the shape a payment breakdown was recorded in.
type PaymentKind string

const (
	PaymentKindNone    PaymentKind = "none"
	PaymentKindMethod  PaymentKind = "by_method"
	PaymentKindChannel PaymentKind = "by_channel"
)

// MethodPayments splits what was received by payment method.
// Card machine fees apply to debit and credit.
type MethodPayments struct {
	Debit   float64 `json:"debit"`
	Credit  float64 `json:"credit"`
	CashPix float64 `json:"cash_pix"`
}

// ChannelPayments splits what was received by channel.
type ChannelPayments struct {
	InApp      float64 `json:"in_app"`
	OutsideApp float64 `json:"outside_app"`
}

// Payments holds at most one of the two breakdown shapes.
type Payments struct {
	ByMethod  *MethodPayments  `json:"by_method,omitempty"`
	ByChannel *ChannelPayments `json:"by_channel,omitempty"`
}

// Kind reports which shape is populated.
func (p Payments) Kind() PaymentKind {
	switch {
	case p.ByMethod != nil:
		return PaymentKindMethod
	case p.ByChannel != nil:
		return PaymentKindChannel
	default:
		return PaymentKindNone
	}
}

// Total returns the sum of itemized amounts, false when nothing was itemized.
func (p Payments) Total() (float64, bool) {
	switch p.Kind() {
	case PaymentKindMethod:
		return p.ByMethod.Debit + p.ByMethod.Credit + p.ByMethod.CashPix, true
	case PaymentKindChannel:
		return p.ByChannel.InApp + p.ByChannel.OutsideApp, true
	default:
		return 0, false
	}
}

// Validate rejects a breakdown carrying both shapes, negative amounts or
// a total that overflows.
func (p Payments) Validate() error {
	if p.ByMethod != nil && p.ByChannel != nil {
		return &ErrValidation{Field: "payments", Message: "informe os valores por forma de pagamento ou por canal, não ambos"}
	}
	if m := p.ByMethod; m != nil {
		if m.Debit < 0 || m.Credit < 0 || m.CashPix < 0 {
			return &ErrValidation{Field: "payments.by_method", Message: "valores recebidos não podem ser negativos"}
		}
	}
	if c := p.ByChannel; c != nil {
		if c.InApp < 0 || c.OutsideApp < 0 {
			return &ErrValidation{Field: "payments.by_channel", Message: "valores recebidos não podem ser negativos"}
		}
	}
	if total, ok := p.Total(); ok && (math.IsNaN(total) || math.IsInf(total, 0)) {
		return &ErrValidation{Field: "payments", Message: "valores recebidos fora do intervalo numérico"}
	}
	return nil
}

// PaymentColumns is the flat column layout persisted for a breakdown.
// Only the columns of the populated shape are non-nil.
type PaymentColumns struct {
	ReceivedInApp      *float64 `json:"received_in_app"`
	ReceivedOutsideApp *float64 `json:"received_outside_app"`
	ReceivedDebit      *float64 `json:"received_debit"`
	ReceivedCredit     *float64 `json:"received_credit"`
	ReceivedCashPix    *float64 `json:"received_cash_pix"`
}

// Columns flattens the breakdown.
func (p Payments) Columns() PaymentColumns {
	var cols PaymentColumns
	if m := p.ByMethod; m != nil {
		cols.ReceivedDebit = floatPtr(m.Debit)
		cols.ReceivedCredit = floatPtr(m.Credit)
		cols.ReceivedCashPix = floatPtr(m.CashPix)
	}
	if c := p.ByChannel; c != nil {
		cols.ReceivedInApp = floatPtr(c.InApp)
		cols.ReceivedOutsideApp = floatPtr(c.OutsideApp)
	}
	return cols
}

// Payments rebuilds a breakdown from stored columns. Method columns win
// when a legacy row has both shapes filled.
func (cols PaymentColumns) Payments() Payments {
	if cols.ReceivedDebit != nil || cols.ReceivedCredit != nil || cols.ReceivedCashPix != nil {
		return Payments{ByMethod: &MethodPayments{
			Debit:   deref(cols.ReceivedDebit),
			Credit:  deref(cols.ReceivedCredit),
			CashPix: deref(cols.ReceivedCashPix),
		}}
	}
	if cols.ReceivedInApp != nil || cols.ReceivedOutsideApp != nil {
		return Payments{ByChannel: &ChannelPayments{
			InApp:      deref(cols.ReceivedInApp),
			OutsideApp: deref(cols.ReceivedOutsideApp),
		}}
	}
	return Payments{}
}

func floatPtr(v float64) *float64 { return &v }

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
