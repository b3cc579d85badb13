package service

import (
	"context"
	"time"

	"putrace/internal/model"
	"putrace/internal/repository"
)

// PresenceService records coarse location heartbeats. Presence is only ever
// written and reaped; nothing queries it server-side.
type PresenceService struct {
	presenceRepo repository.PresenceRepository
}

func NewPresenceService(presenceRepo repository.PresenceRepository) *PresenceService {
	return &PresenceService{presenceRepo: presenceRepo}
}

// Heartbeat upserts the caller's presence with a bounded TTL.
func (s *PresenceService) Heartbeat(ctx context.Context, userID int64, geoHash string, ttlSeconds int) (*model.Presence, error) {
	if ttlSeconds <= 0 {
		ttlSeconds = model.DefaultPresenceTTL
	}
	if ttlSeconds > model.MaxPresenceTTL {
		ttlSeconds = model.MaxPresenceTTL
	}

	p := &model.Presence{
		UserID:   userID,
		GeoHash:  geoHash,
		ExpireAt: time.Now().Add(time.Duration(ttlSeconds) * time.Second),
	}
	if err := s.presenceRepo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
