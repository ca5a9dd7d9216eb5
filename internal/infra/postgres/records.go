package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/boddenberg/driver-finance-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

const recordColumns = `id::text, user_id::text, record_date::text, gross_revenue, km_driven, total_rides,
	hours_online, hours_working,
	received_in_app, received_outside_app, received_debit, received_credit, received_cash_pix,
	personal_expenses, personal_expenses_description,
	fuel_cost, maintenance_cost, app_fees, car_wash_cost, debit_fee, credit_fee,
	daily_ipva_cost, daily_insurance_cost, total_operational_costs,
	operational_profit, net_profit, config_version_id::text, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*domain.DailyRecord, error) {
	var (
		r       domain.DailyRecord
		cols    domain.PaymentColumns
		desc    *string
		version *string
	)
	err := row.Scan(
		&r.ID, &r.UserID, &r.RecordDate, &r.GrossRevenue, &r.KmDriven, &r.TotalRides,
		&r.HoursOnline, &r.HoursWorking,
		&cols.ReceivedInApp, &cols.ReceivedOutsideApp, &cols.ReceivedDebit, &cols.ReceivedCredit, &cols.ReceivedCashPix,
		&r.PersonalExpenses, &desc,
		&r.Costs.Fuel, &r.Costs.Maintenance, &r.Costs.AppFees, &r.Costs.CarWash, &r.Costs.DebitFee, &r.Costs.CreditFee,
		&r.Costs.DailyIPVA, &r.Costs.DailyInsurance, &r.Costs.TotalOperationalCosts,
		&r.OperationalProfit, &r.NetProfit, &version, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Payments = cols.Payments()
	if desc != nil {
		r.PersonalExpensesDescription = *desc
	}
	if version != nil {
		r.ConfigVersionID = *version
	}
	return &r, nil
}

// recordArgs lists the writable columns in insert order ($1..$26).
func recordArgs(r *domain.DailyRecord) []any {
	cols := r.Payments.Columns()
	return []any{
		r.UserID, r.RecordDate, r.GrossRevenue, r.KmDriven, r.TotalRides,
		r.HoursOnline, r.HoursWorking,
		cols.ReceivedInApp, cols.ReceivedOutsideApp, cols.ReceivedDebit, cols.ReceivedCredit, cols.ReceivedCashPix,
		r.PersonalExpenses, nullable(r.PersonalExpensesDescription),
		r.Costs.Fuel, r.Costs.Maintenance, r.Costs.AppFees, r.Costs.CarWash, r.Costs.DebitFee, r.Costs.CreditFee,
		r.Costs.DailyIPVA, r.Costs.DailyInsurance, r.Costs.TotalOperationalCosts,
		r.OperationalProfit, r.NetProfit, nullable(r.ConfigVersionID),
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *Store) GetRecordByDate(ctx context.Context, userID, date string) (*domain.DailyRecord, error) {
	ctx, span := tracer.Start(ctx, "Postgres.GetRecordByDate")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("record.date", date))

	query := `SELECT ` + recordColumns + ` FROM daily_records WHERE user_id = $1 AND record_date = $2::date`
	rec, err := scanRecord(s.pool.QueryRow(ctx, query, userID, date))
	if isNoRow(err) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("postgres/records", err)
	}
	return rec, nil
}

func (s *Store) GetRecord(ctx context.Context, userID, recordID string) (*domain.DailyRecord, error) {
	ctx, span := tracer.Start(ctx, "Postgres.GetRecord")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("record.id", recordID))

	query := `SELECT ` + recordColumns + ` FROM daily_records WHERE id = $1 AND user_id = $2`
	rec, err := scanRecord(s.pool.QueryRow(ctx, query, recordID, userID))
	if isNoRow(err) {
		return nil, &domain.ErrNotFound{Resource: "daily_record", ID: recordID}
	}
	if err != nil {
		return nil, mapError("postgres/records", err)
	}
	return rec, nil
}

func (s *Store) ListRecords(ctx context.Context, userID string, q domain.RecordQuery) ([]domain.DailyRecord, error) {
	ctx, span := tracer.Start(ctx, "Postgres.ListRecords")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("range.from", q.From), attribute.String("range.to", q.To))

	query, args := listRecordsQuery(userID, q)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("postgres/records", err)
	}
	defer rows.Close()

	records := make([]domain.DailyRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, mapError("postgres/records", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("postgres/records", err)
	}
	return records, nil
}

func listRecordsQuery(userID string, q domain.RecordQuery) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT ` + recordColumns + ` FROM daily_records WHERE user_id = $1`)
	args := []any{userID}

	if q.From != "" {
		args = append(args, q.From)
		fmt.Fprintf(&b, " AND record_date >= $%d::date", len(args))
	}
	if q.To != "" {
		args = append(args, q.To)
		fmt.Fprintf(&b, " AND record_date <= $%d::date", len(args))
	}
	if q.Ascending {
		b.WriteString(" ORDER BY record_date ASC")
	} else {
		b.WriteString(" ORDER BY record_date DESC")
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}

func (s *Store) CreateRecord(ctx context.Context, rec *domain.DailyRecord) (*domain.DailyRecord, error) {
	ctx, span := tracer.Start(ctx, "Postgres.CreateRecord")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", rec.UserID), attribute.String("record.date", rec.RecordDate))

	query := `
		INSERT INTO daily_records (
			user_id, record_date, gross_revenue, km_driven, total_rides,
			hours_online, hours_working,
			received_in_app, received_outside_app, received_debit, received_credit, received_cash_pix,
			personal_expenses, personal_expenses_description,
			fuel_cost, maintenance_cost, app_fees, car_wash_cost, debit_fee, credit_fee,
			daily_ipva_cost, daily_insurance_cost, total_operational_costs,
			operational_profit, net_profit, config_version_id)
		VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
		RETURNING ` + recordColumns

	created, err := scanRecord(s.pool.QueryRow(ctx, query, recordArgs(rec)...))
	if err != nil {
		return nil, mapError("postgres/records", err)
	}
	return created, nil
}

func (s *Store) UpdateRecord(ctx context.Context, rec *domain.DailyRecord) (*domain.DailyRecord, error) {
	ctx, span := tracer.Start(ctx, "Postgres.UpdateRecord")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", rec.UserID), attribute.String("record.id", rec.ID))

	query := `
		UPDATE daily_records SET
			record_date = $2::date, gross_revenue = $3, km_driven = $4, total_rides = $5,
			hours_online = $6, hours_working = $7,
			received_in_app = $8, received_outside_app = $9, received_debit = $10, received_credit = $11, received_cash_pix = $12,
			personal_expenses = $13, personal_expenses_description = $14,
			fuel_cost = $15, maintenance_cost = $16, app_fees = $17, car_wash_cost = $18, debit_fee = $19, credit_fee = $20,
			daily_ipva_cost = $21, daily_insurance_cost = $22, total_operational_costs = $23,
			operational_profit = $24, net_profit = $25, config_version_id = $26,
			updated_at = now()
		WHERE user_id = $1 AND id = $27
		RETURNING ` + recordColumns

	args := append(recordArgs(rec), rec.ID)
	updated, err := scanRecord(s.pool.QueryRow(ctx, query, args...))
	if isNoRow(err) {
		return nil, &domain.ErrNotFound{Resource: "daily_record", ID: rec.ID}
	}
	if err != nil {
		return nil, mapError("postgres/records", err)
	}
	return updated, nil
}

func (s *Store) DeleteRecord(ctx context.Context, userID, recordID string) error {
	ctx, span := tracer.Start(ctx, "Postgres.DeleteRecord")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("record.id", recordID))

	tag, err := s.pool.Exec(ctx, `DELETE FROM daily_records WHERE id = $1 AND user_id = $2`, recordID, userID)
	if isNoRow(err) {
		return &domain.ErrNotFound{Resource: "daily_record", ID: recordID}
	}
	if err != nil {
		return mapError("postgres/records", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "daily_record", ID: recordID}
	}
	return nil
}
