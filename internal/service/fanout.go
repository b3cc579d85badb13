package service

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"putrace/internal/model"
	"putrace/internal/repository"
)

// PushSender dispatches one multi-token push request. Implemented by
// FCMClient; per-token results are best-effort and not inspected here.
type PushSender interface {
	SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}

// Notification is the payload fanned out to a recipient set.
type Notification struct {
	Title        string
	Body         string
	Route        string
	Type         string
	PostID       *int64
	SourceUserID *int64
	ExpiresAt    *time.Time
}

// FanoutResult reports per-recipient outcomes of one fan-out.
type FanoutResult struct {
	Recipients   int
	AlertsFailed int
	PushFailed   int
}

// FanoutService delivers one logical notification to many recipients.
// Each recipient is processed independently and concurrently: the Alert row
// is the durable record of intent, push delivery a best-effort enhancement.
// One recipient's failure never blocks or fails another's processing.
type FanoutService struct {
	alertRepo repository.AlertRepository
	tokenRepo repository.DeviceTokenRepository
	push      PushSender // Can be nil if push not configured
}

func NewFanoutService(
	alertRepo repository.AlertRepository,
	tokenRepo repository.DeviceTokenRepository,
	push PushSender,
) *FanoutService {
	return &FanoutService{
		alertRepo: alertRepo,
		tokenRepo: tokenRepo,
		push:      push,
	}
}

// Deliver persists exactly one Alert per recipient and dispatches push
// notifications, tolerating partial failure. Failures are logged and
// swallowed at per-recipient granularity; Deliver itself never errors.
func (s *FanoutService) Deliver(ctx context.Context, recipients []int64, n Notification) FanoutResult {
	result := FanoutResult{Recipients: len(recipients)}
	if len(recipients) == 0 {
		return result
	}

	startTime := time.Now()

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, recipient := range recipients {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			alertErr, pushErr := s.deliverOne(ctx, userID, n)

			mu.Lock()
			if alertErr != nil {
				result.AlertsFailed++
			}
			if pushErr != nil {
				result.PushFailed++
			}
			mu.Unlock()
		}(recipient)
	}
	wg.Wait()

	log.Printf("[Fanout] Deliver DONE: type=%s recipients=%d alertsFailed=%d pushFailed=%d duration=%v",
		n.Type, result.Recipients, result.AlertsFailed, result.PushFailed, time.Since(startTime))
	return result
}

// deliverOne handles a single recipient: alert write, token lookup, push.
// A push failure never aborts alert persistence; the alert write comes
// first and its outcome is independent.
func (s *FanoutService) deliverOne(ctx context.Context, userID int64, n Notification) (alertErr, pushErr error) {
	alert := &model.Alert{
		UserID:       userID,
		Title:        n.Title,
		Body:         n.Body,
		Route:        n.Route,
		Type:         n.Type,
		PostID:       n.PostID,
		SourceUserID: n.SourceUserID,
		ExpiresAt:    n.ExpiresAt,
	}
	if err := s.alertRepo.Create(ctx, alert); err != nil {
		log.Printf("[Fanout] alert write failed: user=%d type=%s err=%v", userID, n.Type, err)
		alertErr = err
	}

	if s.push == nil {
		return alertErr, nil
	}

	tokens, err := s.tokenRepo.GetByUserID(ctx, userID, model.MaxDeviceTokensPerSend)
	if err != nil {
		log.Printf("[Fanout] token lookup failed: user=%d err=%v", userID, err)
		return alertErr, err
	}
	if len(tokens) == 0 {
		return alertErr, nil // User has no registered devices
	}

	tokenStrings := make([]string, len(tokens))
	for i, t := range tokens {
		tokenStrings[i] = t.Token
	}

	if err := s.push.SendToTokens(ctx, tokenStrings, n.Title, n.Body, s.dataPayload(n)); err != nil {
		log.Printf("[Fanout] push failed: user=%d type=%s err=%v", userID, n.Type, err)
		return alertErr, err
	}
	return alertErr, nil
}

// dataPayload builds the free-form key/value strings the push gateway
// forwards to the client for navigation.
func (s *FanoutService) dataPayload(n Notification) map[string]string {
	data := map[string]string{
		"route": n.Route,
		"type":  n.Type,
	}
	if n.PostID != nil {
		data["post_id"] = strconv.FormatInt(*n.PostID, 10)
	}
	if n.SourceUserID != nil {
		data["source_user_id"] = strconv.FormatInt(*n.SourceUserID, 10)
	}
	return data
}
