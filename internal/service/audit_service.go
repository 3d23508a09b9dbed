package service

import (
	"context"
	"fmt"
	"time"

	"expenseflow/internal/repository"
)

type AuditEntry struct {
	ActorID   string `json:"actor_id"`
	Action    string `json:"action"`
	EntityID  string `json:"entity_id"`
	Details   string `json:"details,omitempty"`
	CreatedAt string `json:"created_at"`
}

// AuditService exposes the company's audit trail. Entries are written by
// the other services; this is the read side only.
type AuditService interface {
	List(ctx context.Context, companyID string, limit int) ([]AuditEntry, error)
}

type auditService struct {
	audits repository.AuditLogRepository
}

// NewAuditService returns a new instance of AuditService
func NewAuditService(audits repository.AuditLogRepository) AuditService {
	return &auditService{audits: audits}
}

func (s *auditService) List(ctx context.Context, companyID string, limit int) ([]AuditEntry, error) {
	entries, err := s.audits.ListByCompany(ctx, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit log: %w", err)
	}

	responses := make([]AuditEntry, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, AuditEntry{
			ActorID:   entry.ActorID,
			Action:    entry.Action,
			EntityID:  entry.EntityID,
			Details:   entry.Details,
			CreatedAt: entry.CreatedAt.Format(time.RFC3339),
		})
	}
	return responses, nil
}
