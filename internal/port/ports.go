// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/driver-finance-go/internal/domain"
)

// RecordStore persists daily records. Implementations scope every call
// to the given user.
type RecordStore interface {
	// GetRecordByDate returns nil, nil when the user has no record that day.
	GetRecordByDate(ctx context.Context, userID, date string) (*domain.DailyRecord, error)
	// GetRecord returns *domain.ErrNotFound when the id is unknown.
	GetRecord(ctx context.Context, userID, recordID string) (*domain.DailyRecord, error)
	ListRecords(ctx context.Context, userID string, q domain.RecordQuery) ([]domain.DailyRecord, error)
	CreateRecord(ctx context.Context, rec *domain.DailyRecord) (*domain.DailyRecord, error)
	UpdateRecord(ctx context.Context, rec *domain.DailyRecord) (*domain.DailyRecord, error)
	DeleteRecord(ctx context.Context, userID, recordID string) error
}

// ConfigStore persists config versions.
type ConfigStore interface {
	// GetConfigAtOrBefore returns the version with the greatest effective
	// date on or before date, or nil, nil when there is none.
	GetConfigAtOrBefore(ctx context.Context, userID, date string) (*domain.ConfigVersion, error)
	GetConfigVersion(ctx context.Context, userID, versionID string) (*domain.ConfigVersion, error)
	// ListConfigVersions returns versions newest effective date first.
	ListConfigVersions(ctx context.Context, userID string) ([]domain.ConfigVersion, error)
	CreateConfigVersion(ctx context.Context, v *domain.ConfigVersion) (*domain.ConfigVersion, error)
	UpdateConfigVersion(ctx context.Context, v *domain.ConfigVersion) (*domain.ConfigVersion, error)
}

// LegacySettingsReader reads the undated settings row older accounts have.
type LegacySettingsReader interface {
	// GetLegacySettings returns nil, nil when the user has none.
	GetLegacySettings(ctx context.Context, userID string) (*domain.LegacySettings, error)
}

// Store is everything the services need from persistence.
type Store interface {
	RecordStore
	ConfigStore
	LegacySettingsReader
	Pinger
}

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	DeletePrefix(prefix string)
}
