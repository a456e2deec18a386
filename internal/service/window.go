package service

import (
	"context"
	"time"

	"github.com/convowin/convowin/internal/cache"
	"github.com/convowin/convowin/internal/region"
	"github.com/convowin/convowin/internal/types"
)

// WindowService tracks the conversation windows a tenant has open per recipient and category
type WindowService interface {
	// IsWindowOpen reports whether a window is open. Cache failures read as closed.
	IsWindowOpen(ctx context.Context, tenantID, recipient string, category types.MessageCategory) bool

	// TryOpenWindow opens a window unless one is already open, in one atomic step.
	// opened is true only for the caller that created the window, which is the one to charge.
	TryOpenWindow(ctx context.Context, tenantID, recipient string, category types.MessageCategory) (opened bool, err error)

	// CloseWindow drops a window so the next message opens and pays for a new one
	CloseWindow(ctx context.Context, tenantID, recipient string, category types.MessageCategory) error
}

type windowService struct {
	ServiceParams
}

func NewWindowService(params ServiceParams) WindowService {
	return &windowService{ServiceParams: params}
}

func windowKey(tenantID, recipient string, category types.MessageCategory) string {
	return cache.GenerateKey(cache.PrefixConversationWindow, tenantID, region.Digits(recipient), category)
}

func (s *windowService) IsWindowOpen(ctx context.Context, tenantID, recipient string, category types.MessageCategory) bool {
	open, err := s.Cache.Exists(ctx, windowKey(tenantID, recipient, category))
	if err != nil {
		s.Logger.WithContext(ctx).Warnw("conversation window lookup failed, treating as closed",
			"tenant_id", tenantID,
			"category", category,
			"error", err)
		return false
	}
	return open
}

func (s *windowService) TryOpenWindow(ctx context.Context, tenantID, recipient string, category types.MessageCategory) (bool, error) {
	return s.Cache.Add(ctx, windowKey(tenantID, recipient, category), s.Clock.Now().Unix(), s.windowTTL())
}

func (s *windowService) CloseWindow(ctx context.Context, tenantID, recipient string, category types.MessageCategory) error {
	return s.Cache.Delete(ctx, windowKey(tenantID, recipient, category))
}

func (s *windowService) windowTTL() time.Duration {
	if ttl := s.Config.Billing.ConversationWindowTTL; ttl > 0 {
		return ttl
	}
	return 24 * time.Hour
}
