package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Migrate creates the schema when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	s.logger.Info("running database migrations")

	migrations := []string{
		migrationCreateConfigVersions,
		migrationCreateDailyRecords,
		migrationCreateUserSettings,
	}
	for i, m := range migrations {
		if _, err := s.pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	s.logger.Info("migrations completed", zap.Int("count", len(migrations)))
	return nil
}

const migrationCreateConfigVersions = `
CREATE TABLE IF NOT EXISTS config_versions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL,
    effective_date DATE NOT NULL,
    car_model TEXT NOT NULL,
    gas_price NUMERIC(10,3) NOT NULL DEFAULT 0,
    fuel_efficiency NUMERIC(10,2) NOT NULL DEFAULT 0,
    maintenance_cost_per_km NUMERIC(10,3) NOT NULL DEFAULT 0,
    app_fee_per_ride NUMERIC(10,2) NOT NULL DEFAULT 0,
    monthly_car_wash NUMERIC(10,2) NOT NULL DEFAULT 0,
    avg_work_days_per_month INTEGER NOT NULL DEFAULT 0,
    debit_fee_percent NUMERIC(5,2) NOT NULL DEFAULT 0,
    credit_fee_percent NUMERIC(5,2) NOT NULL DEFAULT 0,
    annual_ipva NUMERIC(12,2) NOT NULL DEFAULT 0,
    annual_insurance NUMERIC(12,2) NOT NULL DEFAULT 0,
    work_days_per_year INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (user_id, effective_date)
);
`

const migrationCreateDailyRecords = `
CREATE TABLE IF NOT EXISTS daily_records (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL,
    record_date DATE NOT NULL,
    gross_revenue NUMERIC(12,2) NOT NULL DEFAULT 0,
    km_driven NUMERIC(10,1) NOT NULL DEFAULT 0,
    total_rides INTEGER NOT NULL DEFAULT 0,
    hours_online NUMERIC(5,2),
    hours_working NUMERIC(5,2),
    received_in_app NUMERIC(12,2),
    received_outside_app NUMERIC(12,2),
    received_debit NUMERIC(12,2),
    received_credit NUMERIC(12,2),
    received_cash_pix NUMERIC(12,2),
    personal_expenses NUMERIC(12,2) NOT NULL DEFAULT 0,
    personal_expenses_description TEXT,
    fuel_cost NUMERIC(12,2) NOT NULL DEFAULT 0,
    maintenance_cost NUMERIC(12,2) NOT NULL DEFAULT 0,
    app_fees NUMERIC(12,2) NOT NULL DEFAULT 0,
    car_wash_cost NUMERIC(12,2) NOT NULL DEFAULT 0,
    debit_fee NUMERIC(12,2) NOT NULL DEFAULT 0,
    credit_fee NUMERIC(12,2) NOT NULL DEFAULT 0,
    daily_ipva_cost NUMERIC(12,2) NOT NULL DEFAULT 0,
    daily_insurance_cost NUMERIC(12,2) NOT NULL DEFAULT 0,
    total_operational_costs NUMERIC(12,2) NOT NULL DEFAULT 0,
    operational_profit NUMERIC(12,2) NOT NULL DEFAULT 0,
    net_profit NUMERIC(12,2) NOT NULL DEFAULT 0,
    config_version_id UUID REFERENCES config_versions(id) ON DELETE SET NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (user_id, record_date)
);
CREATE INDEX IF NOT EXISTS idx_daily_records_user_date ON daily_records (user_id, record_date DESC);
`

const migrationCreateUserSettings = `
CREATE TABLE IF NOT EXISTS user_settings (
    user_id UUID PRIMARY KEY,
    car_model TEXT,
    gas_price NUMERIC(10,3) NOT NULL DEFAULT 0,
    fuel_efficiency NUMERIC(10,2) NOT NULL DEFAULT 0,
    maintenance_cost_per_km NUMERIC(10,3) NOT NULL DEFAULT 0,
    app_fee_per_ride NUMERIC(10,2) NOT NULL DEFAULT 0,
    monthly_car_wash NUMERIC(10,2) NOT NULL DEFAULT 0,
    avg_work_days_per_month INTEGER NOT NULL DEFAULT 0
);
`
