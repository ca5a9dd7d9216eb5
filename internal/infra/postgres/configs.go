package postgres

import (
	"context"

	"github.com/boddenberg/driver-finance-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

const configColumns = `id::text, user_id::text, effective_date::text, car_model,
	gas_price, fuel_efficiency, maintenance_cost_per_km, app_fee_per_ride, monthly_car_wash,
	avg_work_days_per_month, debit_fee_percent, credit_fee_percent,
	annual_ipva, annual_insurance, work_days_per_year, created_at, updated_at`

func scanConfig(row scanner) (*domain.ConfigVersion, error) {
	var v domain.ConfigVersion
	err := row.Scan(
		&v.ID, &v.UserID, &v.EffectiveDate, &v.CarModel,
		&v.GasPrice, &v.FuelEfficiency, &v.MaintenanceCostPerKm, &v.AppFeePerRide, &v.MonthlyCarWash,
		&v.AvgWorkDaysPerMonth, &v.DebitFeePercent, &v.CreditFeePercent,
		&v.AnnualIPVA, &v.AnnualInsurance, &v.WorkDaysPerYear, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func configArgs(v *domain.ConfigVersion) []any {
	return []any{
		v.UserID, v.EffectiveDate, v.CarModel,
		v.GasPrice, v.FuelEfficiency, v.MaintenanceCostPerKm, v.AppFeePerRide, v.MonthlyCarWash,
		v.AvgWorkDaysPerMonth, v.DebitFeePercent, v.CreditFeePercent,
		v.AnnualIPVA, v.AnnualInsurance, v.WorkDaysPerYear,
	}
}

func (s *Store) GetConfigAtOrBefore(ctx context.Context, userID, date string) (*domain.ConfigVersion, error) {
	ctx, span := tracer.Start(ctx, "Postgres.GetConfigAtOrBefore")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("config.date", date))

	query := `SELECT ` + configColumns + ` FROM config_versions
		WHERE user_id = $1 AND effective_date <= $2::date
		ORDER BY effective_date DESC LIMIT 1`
	v, err := scanConfig(s.pool.QueryRow(ctx, query, userID, date))
	if isNoRow(err) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("postgres/config", err)
	}
	return v, nil
}

func (s *Store) GetConfigVersion(ctx context.Context, userID, versionID string) (*domain.ConfigVersion, error) {
	ctx, span := tracer.Start(ctx, "Postgres.GetConfigVersion")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("config.id", versionID))

	query := `SELECT ` + configColumns + ` FROM config_versions WHERE id = $1 AND user_id = $2`
	v, err := scanConfig(s.pool.QueryRow(ctx, query, versionID, userID))
	if isNoRow(err) {
		return nil, &domain.ErrNotFound{Resource: "config_version", ID: versionID}
	}
	if err != nil {
		return nil, mapError("postgres/config", err)
	}
	return v, nil
}

func (s *Store) ListConfigVersions(ctx context.Context, userID string) ([]domain.ConfigVersion, error) {
	ctx, span := tracer.Start(ctx, "Postgres.ListConfigVersions")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	rows, err := s.pool.Query(ctx, `SELECT `+configColumns+` FROM config_versions
		WHERE user_id = $1 ORDER BY effective_date DESC`, userID)
	if err != nil {
		return nil, mapError("postgres/config", err)
	}
	defer rows.Close()

	versions := make([]domain.ConfigVersion, 0)
	for rows.Next() {
		v, err := scanConfig(rows)
		if err != nil {
			return nil, mapError("postgres/config", err)
		}
		versions = append(versions, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("postgres/config", err)
	}
	return versions, nil
}

func (s *Store) CreateConfigVersion(ctx context.Context, v *domain.ConfigVersion) (*domain.ConfigVersion, error) {
	ctx, span := tracer.Start(ctx, "Postgres.CreateConfigVersion")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", v.UserID), attribute.String("config.effective_date", v.EffectiveDate))

	query := `
		INSERT INTO config_versions (
			user_id, effective_date, car_model,
			gas_price, fuel_efficiency, maintenance_cost_per_km, app_fee_per_ride, monthly_car_wash,
			avg_work_days_per_month, debit_fee_percent, credit_fee_percent,
			annual_ipva, annual_insurance, work_days_per_year)
		VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + configColumns

	created, err := scanConfig(s.pool.QueryRow(ctx, query, configArgs(v)...))
	if err != nil {
		return nil, mapError("postgres/config", err)
	}
	return created, nil
}

func (s *Store) UpdateConfigVersion(ctx context.Context, v *domain.ConfigVersion) (*domain.ConfigVersion, error) {
	ctx, span := tracer.Start(ctx, "Postgres.UpdateConfigVersion")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", v.UserID), attribute.String("config.id", v.ID))

	query := `
		UPDATE config_versions SET
			effective_date = $2::date, car_model = $3,
			gas_price = $4, fuel_efficiency = $5, maintenance_cost_per_km = $6, app_fee_per_ride = $7, monthly_car_wash = $8,
			avg_work_days_per_month = $9, debit_fee_percent = $10, credit_fee_percent = $11,
			annual_ipva = $12, annual_insurance = $13, work_days_per_year = $14,
			updated_at = now()
		WHERE user_id = $1 AND id = $15
		RETURNING ` + configColumns

	args := append(configArgs(v), v.ID)
	updated, err := scanConfig(s.pool.QueryRow(ctx, query, args...))
	if isNoRow(err) {
		return nil, &domain.ErrNotFound{Resource: "config_version", ID: v.ID}
	}
	if err != nil {
		return nil, mapError("postgres/config", err)
	}
	return updated, nil
}

func (s *Store) GetLegacySettings(ctx context.Context, userID string) (*domain.LegacySettings, error) {
	ctx, span := tracer.Start(ctx, "Postgres.GetLegacySettings")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var (
		ls       domain.LegacySettings
		carModel *string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT user_id::text, car_model, gas_price, fuel_efficiency, maintenance_cost_per_km,
			app_fee_per_ride, monthly_car_wash, avg_work_days_per_month
		FROM user_settings WHERE user_id = $1`, userID,
	).Scan(&ls.UserID, &carModel, &ls.GasPrice, &ls.FuelEfficiency, &ls.MaintenanceCostPerKm,
		&ls.AppFeePerRide, &ls.MonthlyCarWash, &ls.AvgWorkDaysPerMonth)
	if isNoRow(err) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("postgres/settings", err)
	}
	if carModel != nil {
		ls.CarModel = *carModel
	}
	return &ls, nil
}
