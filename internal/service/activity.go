package service

import (
	"context"
	"encoding/json"

	"codecamp/internal/models"
	"codecamp/internal/repository"

	"go.uber.org/zap"
)

type clientInfoKey struct{}

type clientInfo struct {
	IP        string
	UserAgent string
}

// WithClientInfo attaches the caller's address and user agent for activity logs.
func WithClientInfo(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, clientInfo{IP: ip, UserAgent: userAgent})
}

func clientFrom(ctx context.Context) clientInfo {
	ci, _ := ctx.Value(clientInfoKey{}).(clientInfo)
	return ci
}

// ActivityRecorder appends activity and access logs. Failures are logged and
// never returned.
type ActivityRecorder struct {
	repo *repository.ActivityLogRepository
	log  *zap.Logger
}

func NewActivityRecorder(repo *repository.ActivityLogRepository, log *zap.Logger) *ActivityRecorder {
	return &ActivityRecorder{repo: repo, log: log.Named("activity")}
}

func (a *ActivityRecorder) Record(ctx context.Context, userID, action, resource, resourceID string, meta map[string]any) {
	if err := a.repo.Create(ctx, newActivity(ctx, userID, action, resource, resourceID, meta)); err != nil {
		a.log.Warn("activity log write failed", zap.String("action", action), zap.String("user_id", userID), zap.Error(err))
	}
}

func newActivity(ctx context.Context, userID, action, resource, resourceID string, meta map[string]any) *models.ActivityLog {
	ci := clientFrom(ctx)
	entry := &models.ActivityLog{
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IP:         ci.IP,
		UserAgent:  ci.UserAgent,
	}
	if userID != "" {
		entry.UserID = &userID
	}
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			entry.Metadata = string(b)
		}
	}
	return entry
}

func (a *ActivityRecorder) RecordAccess(ctx context.Context, userID string, access *PortalAccess) {
	entry := &models.AccessLog{
		UserID:      userID,
		HasAccess:   access.HasAccess,
		Reason:      access.Reason,
		Permissions: access.Permissions,
		Features:    access.Features,
	}
	if err := a.repo.CreateAccessLog(ctx, entry); err != nil {
		a.log.Warn("access log write failed", zap.String("user_id", userID), zap.Error(err))
	}
}
