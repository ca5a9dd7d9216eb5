// Package memory is an in-process implementation of port.Store, used for
// local development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/boddenberg/driver-finance-go/internal/domain"

	"github.com/google/uuid"
)

// Store keeps records and config versions in maps guarded by a RWMutex.
// Values are copied on the way in and out so callers never share state.
type Store struct {
	mu       sync.RWMutex
	records  map[string]*domain.DailyRecord   // keyed by record id
	versions map[string]*domain.ConfigVersion // keyed by version id
	legacy   map[string]*domain.LegacySettings
	now      func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		records:  make(map[string]*domain.DailyRecord),
		versions: make(map[string]*domain.ConfigVersion),
		legacy:   make(map[string]*domain.LegacySettings),
		now:      time.Now,
	}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// PutLegacySettings seeds the undated settings row for a user.
func (s *Store) PutLegacySettings(ls domain.LegacySettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.legacy[ls.UserID] = &ls
}

// --- records ---

func (s *Store) GetRecordByDate(_ context.Context, userID, date string) (*domain.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.UserID == userID && r.RecordDate == date {
			return copyRecord(r), nil
		}
	}
	return nil, nil
}

func (s *Store) GetRecord(_ context.Context, userID, recordID string) (*domain.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[recordID]
	if !ok || r.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "daily_record", ID: recordID}
	}
	return copyRecord(r), nil
}

func (s *Store) ListRecords(_ context.Context, userID string, q domain.RecordQuery) ([]domain.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.DailyRecord, 0)
	for _, r := range s.records {
		if r.UserID != userID {
			continue
		}
		if q.From != "" && r.RecordDate < q.From {
			continue
		}
		if q.To != "" && r.RecordDate > q.To {
			continue
		}
		result = append(result, *copyRecord(r))
	}

	sort.Slice(result, func(i, j int) bool {
		if q.Ascending {
			return result[i].RecordDate < result[j].RecordDate
		}
		return result[i].RecordDate > result[j].RecordDate
	})

	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

// CreateRecord assigns an id and timestamps. A second record for the same
// (user, date) is rejected with *domain.ErrConflict.
func (s *Store) CreateRecord(_ context.Context, rec *domain.DailyRecord) (*domain.DailyRecord, error) {
	if rec == nil || rec.UserID == "" {
		return nil, &domain.ErrValidation{Field: "user_id", Message: "obrigatório"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.UserID == rec.UserID && r.RecordDate == rec.RecordDate {
			return nil, &domain.ErrConflict{Message: fmt.Sprintf("já existe um registro para %s", rec.RecordDate)}
		}
	}

	stored := copyRecord(rec)
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := s.now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.records[stored.ID] = stored
	return copyRecord(stored), nil
}

func (s *Store) UpdateRecord(_ context.Context, rec *domain.DailyRecord) (*domain.DailyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[rec.ID]
	if !ok || existing.UserID != rec.UserID {
		return nil, &domain.ErrNotFound{Resource: "daily_record", ID: rec.ID}
	}
	for _, r := range s.records {
		if r.ID != rec.ID && r.UserID == rec.UserID && r.RecordDate == rec.RecordDate {
			return nil, &domain.ErrConflict{Message: fmt.Sprintf("já existe um registro para %s", rec.RecordDate)}
		}
	}

	stored := copyRecord(rec)
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = s.now().UTC()
	s.records[stored.ID] = stored
	return copyRecord(stored), nil
}

func (s *Store) DeleteRecord(_ context.Context, userID, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[recordID]
	if !ok || r.UserID != userID {
		return &domain.ErrNotFound{Resource: "daily_record", ID: recordID}
	}
	delete(s.records, recordID)
	return nil
}

// --- config versions ---

func (s *Store) GetConfigAtOrBefore(_ context.Context, userID, date string) (*domain.ConfigVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.ConfigVersion
	for _, v := range s.versions {
		if v.UserID != userID || v.EffectiveDate > date {
			continue
		}
		if best == nil || v.EffectiveDate > best.EffectiveDate {
			best = v
		}
	}
	if best == nil {
		return nil, nil
	}
	c := *best
	return &c, nil
}

func (s *Store) GetConfigVersion(_ context.Context, userID, versionID string) (*domain.ConfigVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.versions[versionID]
	if !ok || v.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "config_version", ID: versionID}
	}
	c := *v
	return &c, nil
}

func (s *Store) ListConfigVersions(_ context.Context, userID string) ([]domain.ConfigVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ConfigVersion, 0)
	for _, v := range s.versions {
		if v.UserID == userID {
			result = append(result, *v)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EffectiveDate > result[j].EffectiveDate
	})
	return result, nil
}

// CreateConfigVersion rejects a second version with the same effective
// date for a user.
func (s *Store) CreateConfigVersion(_ context.Context, v *domain.ConfigVersion) (*domain.ConfigVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEffectiveDateLocked(v); err != nil {
		return nil, err
	}

	stored := *v
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := s.now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.versions[stored.ID] = &stored
	c := stored
	return &c, nil
}

func (s *Store) UpdateConfigVersion(_ context.Context, v *domain.ConfigVersion) (*domain.ConfigVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.versions[v.ID]
	if !ok || existing.UserID != v.UserID {
		return nil, &domain.ErrNotFound{Resource: "config_version", ID: v.ID}
	}
	if err := s.checkEffectiveDateLocked(v); err != nil {
		return nil, err
	}

	stored := *v
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = s.now().UTC()
	s.versions[stored.ID] = &stored
	c := stored
	return &c, nil
}

func (s *Store) checkEffectiveDateLocked(v *domain.ConfigVersion) error {
	for _, other := range s.versions {
		if other.ID != v.ID && other.UserID == v.UserID && other.EffectiveDate == v.EffectiveDate {
			return &domain.ErrConflict{Message: fmt.Sprintf("já existe uma configuração vigente a partir de %s", v.EffectiveDate)}
		}
	}
	return nil
}

// --- legacy settings ---

func (s *Store) GetLegacySettings(_ context.Context, userID string) (*domain.LegacySettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ls, ok := s.legacy[userID]
	if !ok {
		return nil, nil
	}
	c := *ls
	return &c, nil
}

// copyRecord copies r including the values behind its pointer fields.
func copyRecord(r *domain.DailyRecord) *domain.DailyRecord {
	c := *r
	if r.HoursOnline != nil {
		v := *r.HoursOnline
		c.HoursOnline = &v
	}
	if r.HoursWorking != nil {
		v := *r.HoursWorking
		c.HoursWorking = &v
	}
	if m := r.Payments.ByMethod; m != nil {
		v := *m
		c.Payments.ByMethod = &v
	}
	if ch := r.Payments.ByChannel; ch != nil {
		v := *ch
		c.Payments.ByChannel = &v
	}
	return &c
}
