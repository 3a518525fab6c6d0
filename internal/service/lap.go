package service

import (
	"context"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/djh20/lfs-leaderboard/internal/model"
)

// LapService handles lap records persisted in Postgres
type LapService struct {
	db *gorm.DB
}

// NewLapService creates a new lap service
func NewLapService(db *gorm.DB) *LapService {
	return &LapService{db: db}
}

// FindOrdered returns laps on a track, fastest first. A non-nil vehicleCode narrows
// the result to that vehicle; limit caps it unless zero.
func (s *LapService) FindOrdered(ctx context.Context, trackCode string, vehicleCode *string, limit int) ([]model.Lap, error) {
	var laps []model.Lap

	query := s.db.WithContext(ctx).Where("track_code = ?", trackCode)
	if vehicleCode != nil {
		query = query.Where("vehicle_code = ?", *vehicleCode)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Order("time_ms ASC").Order("id ASC").Find(&laps).Error; err != nil {
		return nil, err
	}

	return laps, nil
}

// Append saves a lap record
func (s *LapService) Append(ctx context.Context, lap *model.Lap) error {
	return s.db.WithContext(ctx).Create(lap).Error
}

// MemoryLapStore keeps laps in process. Used when no database is configured.
type MemoryLapStore struct {
	mu     sync.RWMutex
	laps   []model.Lap
	nextID uint
}

// NewMemoryLapStore creates an empty in-memory lap store
func NewMemoryLapStore() *MemoryLapStore {
	return &MemoryLapStore{}
}

// FindOrdered returns laps on a track, fastest first, ties in insertion order.
func (s *MemoryLapStore) FindOrdered(ctx context.Context, trackCode string, vehicleCode *string, limit int) ([]model.Lap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	laps := make([]model.Lap, 0)
	for _, lap := range s.laps {
		if lap.TrackCode != trackCode {
			continue
		}
		if vehicleCode != nil && lap.VehicleCode != *vehicleCode {
			continue
		}
		laps = append(laps, lap)
	}

	sort.SliceStable(laps, func(i, j int) bool {
		return laps[i].TimeMs < laps[j].TimeMs
	})
	if limit > 0 && len(laps) > limit {
		laps = laps[:limit]
	}
	return laps, nil
}

// Append saves a lap record and assigns its ID
func (s *MemoryLapStore) Append(ctx context.Context, lap *model.Lap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	lap.ID = s.nextID
	s.laps = append(s.laps, *lap)
	return nil
}

// Count returns the number of stored laps
func (s *MemoryLapStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.laps)
}
