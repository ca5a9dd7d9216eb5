package supabase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/boddenberg/driver-finance-go/internal/domain"
	"github.com/boddenberg/driver-finance-go/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// config_versions and user_settings (implements port.ConfigStore
// and port.LegacySettingsReader)
// ============================================================

type configRow struct {
	ID                   string     `json:"id,omitempty"`
	UserID               string     `json:"user_id"`
	EffectiveDate        string     `json:"effective_date"`
	CarModel             string     `json:"car_model"`
	GasPrice             float64    `json:"gas_price"`
	FuelEfficiency       float64    `json:"fuel_efficiency"`
	MaintenanceCostPerKm float64    `json:"maintenance_cost_per_km"`
	AppFeePerRide        float64    `json:"app_fee_per_ride"`
	MonthlyCarWash       float64    `json:"monthly_car_wash"`
	AvgWorkDaysPerMonth  int        `json:"avg_work_days_per_month"`
	DebitFeePercent      float64    `json:"debit_fee_percent"`
	CreditFeePercent     float64    `json:"credit_fee_percent"`
	AnnualIPVA           float64    `json:"annual_ipva"`
	AnnualInsurance      float64    `json:"annual_insurance"`
	WorkDaysPerYear      int        `json:"work_days_per_year"`
	CreatedAt            *time.Time `json:"created_at,omitempty"`
	UpdatedAt            *time.Time `json:"updated_at,omitempty"`
}

func toConfigRow(v *domain.ConfigVersion) configRow {
	return configRow{
		UserID:               v.UserID,
		EffectiveDate:        v.EffectiveDate,
		CarModel:             v.CarModel,
		GasPrice:             v.GasPrice,
		FuelEfficiency:       v.FuelEfficiency,
		MaintenanceCostPerKm: v.MaintenanceCostPerKm,
		AppFeePerRide:        v.AppFeePerRide,
		MonthlyCarWash:       v.MonthlyCarWash,
		AvgWorkDaysPerMonth:  v.AvgWorkDaysPerMonth,
		DebitFeePercent:      v.DebitFeePercent,
		CreditFeePercent:     v.CreditFeePercent,
		AnnualIPVA:           v.AnnualIPVA,
		AnnualInsurance:      v.AnnualInsurance,
		WorkDaysPerYear:      v.WorkDaysPerYear,
	}
}

func (row configRow) toDomain() domain.ConfigVersion {
	v := domain.ConfigVersion{
		ID:                   row.ID,
		UserID:               row.UserID,
		EffectiveDate:        normalizeDate(row.EffectiveDate),
		CarModel:             row.CarModel,
		GasPrice:             row.GasPrice,
		FuelEfficiency:       row.FuelEfficiency,
		MaintenanceCostPerKm: row.MaintenanceCostPerKm,
		AppFeePerRide:        row.AppFeePerRide,
		MonthlyCarWash:       row.MonthlyCarWash,
		AvgWorkDaysPerMonth:  row.AvgWorkDaysPerMonth,
		DebitFeePercent:      row.DebitFeePercent,
		CreditFeePercent:     row.CreditFeePercent,
		AnnualIPVA:           row.AnnualIPVA,
		AnnualInsurance:      row.AnnualInsurance,
		WorkDaysPerYear:      row.WorkDaysPerYear,
	}
	if row.CreatedAt != nil {
		v.CreatedAt = *row.CreatedAt
	}
	if row.UpdatedAt != nil {
		v.UpdatedAt = *row.UpdatedAt
	}
	return v
}

// GetConfigAtOrBefore fetches the version effective on date.
func (c *Client) GetConfigAtOrBefore(ctx context.Context, userID, date string) (*domain.ConfigVersion, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetConfigAtOrBefore")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("config.date", date))

	var version *domain.ConfigVersion
	err := c.execute(ctx, "supabase/config", func() error {
		path := fmt.Sprintf("%s?user_id=eq.%s&effective_date=lte.%s&order=effective_date.desc&limit=1",
			tableConfigs, url.QueryEscape(userID), url.QueryEscape(date))
		body, err := c.doGet(ctx, path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[configRow](body)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			v := rows[0].toDomain()
			version = &v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

// GetConfigVersion fetches a version by id.
func (c *Client) GetConfigVersion(ctx context.Context, userID, versionID string) (*domain.ConfigVersion, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetConfigVersion")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("config.id", versionID))

	var version *domain.ConfigVersion
	err := c.execute(ctx, "supabase/config", func() error {
		path := fmt.Sprintf("%s?id=eq.%s&user_id=eq.%s&limit=1",
			tableConfigs, url.QueryEscape(versionID), url.QueryEscape(userID))
		body, err := c.doGet(ctx, path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[configRow](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return resilience.Permanent(&domain.ErrNotFound{Resource: "config_version", ID: versionID})
		}
		v := rows[0].toDomain()
		version = &v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

// ListConfigVersions lists versions newest first.
func (c *Client) ListConfigVersions(ctx context.Context, userID string) ([]domain.ConfigVersion, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListConfigVersions")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var versions []domain.ConfigVersion
	err := c.execute(ctx, "supabase/config", func() error {
		path := fmt.Sprintf("%s?user_id=eq.%s&order=effective_date.desc", tableConfigs, url.QueryEscape(userID))
		body, err := c.doGet(ctx, path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[configRow](body)
		if err != nil {
			return err
		}
		versions = make([]domain.ConfigVersion, 0, len(rows))
		for _, row := range rows {
			versions = append(versions, row.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return versions, nil
}

// CreateConfigVersion inserts a version. The (user_id, effective_date)
// unique index surfaces as *domain.ErrConflict.
func (c *Client) CreateConfigVersion(ctx context.Context, v *domain.ConfigVersion) (*domain.ConfigVersion, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateConfigVersion")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", v.UserID), attribute.String("config.effective_date", v.EffectiveDate))

	var created *domain.ConfigVersion
	err := c.execute(ctx, "supabase/config", func() error {
		body, err := c.doPost(ctx, tableConfigs, toConfigRow(v))
		if err != nil {
			return err
		}
		rows, err := decodeRows[configRow](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return resilience.Permanent(fmt.Errorf("insert into %s returned no rows", tableConfigs))
		}
		cv := rows[0].toDomain()
		created = &cv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateConfigVersion overwrites a version in place.
func (c *Client) UpdateConfigVersion(ctx context.Context, v *domain.ConfigVersion) (*domain.ConfigVersion, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateConfigVersion")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", v.UserID), attribute.String("config.id", v.ID))

	row := toConfigRow(v)
	now := time.Now().UTC()
	row.UpdatedAt = &now

	var updated *domain.ConfigVersion
	err := c.execute(ctx, "supabase/config", func() error {
		path := fmt.Sprintf("%s?id=eq.%s&user_id=eq.%s",
			tableConfigs, url.QueryEscape(v.ID), url.QueryEscape(v.UserID))
		body, err := c.doPatch(ctx, path, row)
		if err != nil {
			return err
		}
		rows, err := decodeRows[configRow](body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return resilience.Permanent(&domain.ErrNotFound{Resource: "config_version", ID: v.ID})
		}
		cv := rows[0].toDomain()
		updated = &cv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetLegacySettings reads the undated user_settings row.
func (c *Client) GetLegacySettings(ctx context.Context, userID string) (*domain.LegacySettings, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetLegacySettings")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var settings *domain.LegacySettings
	err := c.execute(ctx, "supabase/settings", func() error {
		path := fmt.Sprintf("%s?user_id=eq.%s&limit=1", tableSettings, url.QueryEscape(userID))
		body, err := c.doGet(ctx, path)
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.LegacySettings](body)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			settings = &rows[0]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}
