package service

import (
	"context"

	"putrace/internal/model"
	"putrace/internal/repository"
)

// AlertService serves the interactive side of notifications: listing a
// user's alerts and managing device-token registrations. Alert creation
// belongs to the fan-out.
type AlertService struct {
	alertRepo repository.AlertRepository
	tokenRepo repository.DeviceTokenRepository
}

func NewAlertService(
	alertRepo repository.AlertRepository,
	tokenRepo repository.DeviceTokenRepository,
) *AlertService {
	return &AlertService{
		alertRepo: alertRepo,
		tokenRepo: tokenRepo,
	}
}

// ListAlerts returns the user's most recent alerts.
func (s *AlertService) ListAlerts(ctx context.Context, userID int64, limit int) (*model.AlertListResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	alerts, err := s.alertRepo.ListByRecipient(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return &model.AlertListResponse{Alerts: alerts}, nil
}

// RegisterDeviceToken stores or updates a device's push token. A token
// already registered to a different user is reassigned (device changed
// hands).
func (s *AlertService) RegisterDeviceToken(ctx context.Context, userID int64, token, platform string) error {
	if platform == "" {
		platform = model.PlatformAndroid
	}
	return s.tokenRepo.Upsert(ctx, userID, token, platform)
}

// RemoveDeviceToken removes a device token (e.g., on logout).
func (s *AlertService) RemoveDeviceToken(ctx context.Context, token string) error {
	return s.tokenRepo.Delete(ctx, token)
}
