package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"putrace/internal/model"
	"putrace/internal/repository"
)

// fallbackDisplayName is used when the token owner has no display name.
const fallbackDisplayName = "Putrace User"

// ProximityService resolves short-range broadcast tokens into masked
// identities. A lookup miss, an expired token, or an unconnected caller all
// resolve as {allowed:false}; only real failures surface as errors.
type ProximityService struct {
	tokenRepo repository.ProximityTokenRepository
	edgeRepo  repository.GraphEdgeRepository
	userRepo  repository.UserRepository
}

func NewProximityService(
	tokenRepo repository.ProximityTokenRepository,
	edgeRepo repository.GraphEdgeRepository,
	userRepo repository.UserRepository,
) *ProximityService {
	return &ProximityService{
		tokenRepo: tokenRepo,
		edgeRepo:  edgeRepo,
		userRepo:  userRepo,
	}
}

// Publish registers a token the caller is currently broadcasting.
func (s *ProximityService) Publish(ctx context.Context, callerID int64, token string, ttl time.Duration) error {
	expireAt := time.Now().Add(ttl)
	t := &model.ProximityToken{
		Token:    token,
		UserID:   callerID,
		ExpireAt: &expireAt,
	}
	if err := s.tokenRepo.Upsert(ctx, t); err != nil {
		return fmt.Errorf("publish proximity token: %w", err)
	}
	return nil
}

// Resolve maps a scanned token to its owner, if the caller is allowed to see
// them. Only first-degree connections resolve; the response masks the owner
// behind initials.
func (s *ProximityService) Resolve(ctx context.Context, callerID int64, token string) (*model.ResolveTokenResponse, error) {
	denied := &model.ResolveTokenResponse{Allowed: false}

	record, err := s.tokenRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrProximityTokenNotFound) {
			return denied, nil
		}
		return nil, fmt.Errorf("lookup proximity token: %w", err)
	}

	if record.IsExpired(time.Now()) {
		return denied, nil
	}

	connected, err := s.edgeRepo.HasFirstDegree(ctx, callerID, record.UserID)
	if err != nil {
		return nil, fmt.Errorf("check connection: %w", err)
	}
	if !connected {
		return denied, nil
	}

	name := fallbackDisplayName
	owner, err := s.userRepo.GetByID(ctx, record.UserID)
	if err != nil {
		// Resolve still succeeds with the fallback name; the owner row
		// missing is not the caller's problem.
		log.Printf("[Proximity] owner lookup failed: user=%d err=%v", record.UserID, err)
	} else if owner.DisplayName != nil && *owner.DisplayName != "" {
		name = *owner.DisplayName
	}

	degree := "first"
	display := fmt.Sprintf("%s (1st)", initials(name))
	peerID := record.UserID

	return &model.ResolveTokenResponse{
		Allowed: true,
		PeerID:  &peerID,
		Degree:  &degree,
		Display: &display,
	}, nil
}

// initials reduces a name to at most two uppercase initials.
func initials(name string) string {
	var out []rune
	for _, part := range strings.Fields(name) {
		for _, r := range part {
			out = append(out, unicode.ToUpper(r))
			break
		}
		if len(out) >= 2 {
			break
		}
	}
	return string(out)
}
