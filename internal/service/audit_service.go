package service

import (
	"context"

	"mining_webapp/internal/domain"
	"mining_webapp/internal/logger"
	"mining_webapp/internal/repository"
)

// AuditService handles audit logging
type AuditService struct{}

func NewAuditService() *AuditService {
	return &AuditService{}
}

// Record appends an entry through q, normally the open transaction, so the entry commits
// or rolls back together with the balance change it describes.
func (s *AuditService) Record(ctx context.Context, q repository.Queries, userID int64, action, category string, details map[string]any) error {
	return q.InsertAudit(ctx, &domain.AuditLog{
		UserID:   userID,
		Action:   action,
		Category: category,
		Details:  details,
	})
}

// LogLogin logs a user login outside any transaction. Failures are only logged.
func (s *AuditService) LogLogin(ctx context.Context, q repository.Queries, userID int64, ip, userAgent string) {
	err := q.InsertAudit(ctx, &domain.AuditLog{
		UserID:    userID,
		Action:    domain.AuditActionLogin,
		Category:  domain.AuditCategoryAuth,
		IP:        ip,
		UserAgent: userAgent,
	})
	if err != nil {
		logger.Error("failed to create audit log", "error", err, "action", domain.AuditActionLogin, "user_id", userID)
	}
}

// LogAdminAction logs an admin action against a target user inside q.
func (s *AuditService) LogAdminAction(ctx context.Context, q repository.Queries, admin, action string, targetUserID int64, details map[string]any) error {
	if details == nil {
		details = make(map[string]any)
	}
	details["admin"] = admin
	return s.Record(ctx, q, targetUserID, action, domain.AuditCategoryAdmin, details)
}
