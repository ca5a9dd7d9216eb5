// Package service implements the use cases on top of the finance core:
// config versions, record writes, analysis and token verification.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/driver-finance-go/internal/domain"
	"github.com/boddenberg/driver-finance-go/internal/finance"
	"github.com/boddenberg/driver-finance-go/internal/infra/observability"
	"github.com/boddenberg/driver-finance-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var configTracer = otel.Tracer("service/config")

// ConfigStore is what ConfigService needs from persistence.
type ConfigStore interface {
	port.ConfigStore
	port.LegacySettingsReader
}

// ConfigService manages the dated cost configuration of each driver.
type ConfigService struct {
	store   ConfigStore
	cache   port.Cache[*domain.ConfigVersion]
	clock   Clock
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewConfigService creates a config service.
func NewConfigService(store ConfigStore, cache port.Cache[*domain.ConfigVersion], clock Clock, metrics *observability.Metrics, logger *zap.Logger) *ConfigService {
	return &ConfigService{
		store:   store,
		cache:   cache,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

func configCacheKey(userID, date string) string {
	return fmt.Sprintf("config:%s:%s", userID, date)
}

func (s *ConfigService) invalidate(userID string) {
	s.cache.DeletePrefix(fmt.Sprintf("config:%s:", userID))
}

// ActiveConfigFor returns the version effective on date: the one with the
// greatest effective date on or before it. No such version is reported as
// *domain.ErrMissingConfiguration.
func (s *ConfigService) ActiveConfigFor(ctx context.Context, userID, date string) (*domain.ConfigVersion, error) {
	ctx, span := configTracer.Start(ctx, "ConfigService.ActiveConfigFor")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("date", date))

	if _, err := parseDate("date", date); err != nil {
		return nil, err
	}

	key := configCacheKey(userID, date)
	if v, ok := s.cache.Get(key); ok {
		s.metrics.IncrCacheHit("config")
		return v, nil
	}
	s.metrics.IncrCacheMiss("config")

	v, err := s.store.GetConfigAtOrBefore(ctx, userID, date)
	if err != nil {
		s.metrics.IncrStoreError("config")
		s.logger.Error("failed to load effective config",
			zap.String("user_id", userID),
			zap.String("date", date),
			zap.Error(err),
		)
		return nil, fmt.Errorf("load effective config: %w", err)
	}
	if v == nil {
		s.logger.Warn("no config version effective",
			zap.String("user_id", userID),
			zap.String("date", date),
		)
		return nil, &domain.ErrMissingConfiguration{UserID: userID, Date: date}
	}

	s.cache.Set(key, v)
	return v, nil
}

// ActiveView returns the version effective on date (today when empty)
// with its fixed costs and warnings.
func (s *ConfigService) ActiveView(ctx context.Context, userID, date string) (*domain.ConfigVersionView, error) {
	d, err := s.clock.resolveDate(date)
	if err != nil {
		return nil, err
	}
	v, err := s.ActiveConfigFor(ctx, userID, formatDate(d))
	if err != nil {
		return nil, err
	}
	view := newConfigView(*v, true)
	return &view, nil
}

// List returns every version, newest effective date first. The version
// effective today is flagged active.
func (s *ConfigService) List(ctx context.Context, userID string) ([]domain.ConfigVersionView, error) {
	ctx, span := configTracer.Start(ctx, "ConfigService.List")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	versions, err := s.store.ListConfigVersions(ctx, userID)
	if err != nil {
		s.metrics.IncrStoreError("config")
		return nil, fmt.Errorf("list config versions: %w", err)
	}

	today := s.clock.TodayString()
	activeFound := false
	views := make([]domain.ConfigVersionView, 0, len(versions))
	for _, v := range versions {
		active := !activeFound && v.EffectiveDate <= today
		if active {
			activeFound = true
		}
		views = append(views, newConfigView(v, active))
	}
	return views, nil
}

// Defaults returns the setup template effective today.
func (s *ConfigService) Defaults() domain.ConfigVersionView {
	in := domain.DefaultConfigInput(s.clock.TodayString())
	var v domain.ConfigVersion
	in.Apply(&v)
	return newConfigView(v, false)
}

// Create adds a version. A second version on the same effective date is a
// conflict.
func (s *ConfigService) Create(ctx context.Context, userID string, in *domain.ConfigVersionInput) (*domain.ConfigVersionView, error) {
	ctx, span := configTracer.Start(ctx, "ConfigService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("effective_date", in.EffectiveDate))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("config_create", time.Since(start)) }()

	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	v := &domain.ConfigVersion{UserID: userID}
	in.Apply(v)

	created, err := s.store.CreateConfigVersion(ctx, v)
	if err != nil {
		return nil, s.writeError("create", userID, err)
	}
	s.invalidate(userID)

	s.logger.Info("config version created",
		zap.String("user_id", userID),
		zap.String("config_version_id", created.ID),
		zap.String("effective_date", created.EffectiveDate),
	)
	view := newConfigView(*created, s.isActive(ctx, created))
	return &view, nil
}

// Update edits a version in place. Records already saved keep the figures
// they were computed with.
func (s *ConfigService) Update(ctx context.Context, userID, versionID string, in *domain.ConfigVersionInput) (*domain.ConfigVersionView, error) {
	ctx, span := configTracer.Start(ctx, "ConfigService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("config.id", versionID))

	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.store.GetConfigVersion(ctx, userID, versionID)
	if err != nil {
		return nil, err
	}
	in.Apply(existing)

	updated, err := s.store.UpdateConfigVersion(ctx, existing)
	if err != nil {
		return nil, s.writeError("update", userID, err)
	}
	s.invalidate(userID)

	s.logger.Info("config version updated",
		zap.String("user_id", userID),
		zap.String("config_version_id", updated.ID),
		zap.String("effective_date", updated.EffectiveDate),
	)
	view := newConfigView(*updated, s.isActive(ctx, updated))
	return &view, nil
}

// ImportLegacy turns the user's undated settings row into a version
// effective on date (today when empty).
func (s *ConfigService) ImportLegacy(ctx context.Context, userID, date string) (*domain.ConfigVersionView, error) {
	ctx, span := configTracer.Start(ctx, "ConfigService.ImportLegacy")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	d, err := s.clock.resolveDate(date)
	if err != nil {
		return nil, err
	}

	legacy, err := s.store.GetLegacySettings(ctx, userID)
	if err != nil {
		s.metrics.IncrStoreError("config")
		return nil, fmt.Errorf("load legacy settings: %w", err)
	}
	if legacy == nil {
		return nil, &domain.ErrNotFound{Resource: "user_settings", ID: userID}
	}

	in := legacy.ToConfigInput(formatDate(d))
	s.logger.Info("importing legacy settings",
		zap.String("user_id", userID),
		zap.String("effective_date", in.EffectiveDate),
	)
	return s.Create(ctx, userID, &in)
}

// isActive reports whether v is the version effective today.
func (s *ConfigService) isActive(ctx context.Context, v *domain.ConfigVersion) bool {
	current, err := s.store.GetConfigAtOrBefore(ctx, v.UserID, s.clock.TodayString())
	return err == nil && current != nil && current.ID == v.ID
}

func (s *ConfigService) writeError(op, userID string, err error) error {
	var conflict *domain.ErrConflict
	if errors.As(err, &conflict) {
		return &domain.ErrConflict{Message: "Já existe uma configuração com esta data de vigência"}
	}
	if isDomainError(err) {
		return err
	}
	s.metrics.IncrStoreError("config")
	s.logger.Error("config version write failed",
		zap.String("op", op),
		zap.String("user_id", userID),
		zap.Error(err),
	)
	return fmt.Errorf("%s config version: %w", op, err)
}

func newConfigView(v domain.ConfigVersion, active bool) domain.ConfigVersionView {
	ipva, insurance := finance.DailyFixedCosts(&v)
	return domain.ConfigVersionView{
		ConfigVersion:  v,
		Active:         active,
		DailyIPVA:      ipva,
		DailyInsurance: insurance,
		DailyFixedCost: ipva + insurance,
		Warnings:       finance.ConfigWarnings(&v),
	}
}
