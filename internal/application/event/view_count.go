package event

import (
	"context"
	"fmt"
	"strings"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

// RecordView adds one to the event's view counter with a single atomic upsert.
// The detail cache is left alone; counts are allowed to lag by one TTL.
func (s *Service) RecordView(ctx context.Context, eventID string) error {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return domain.ErrValidation("event_id is required")
	}
	if err := s.repo.IncrementViewCount(ctx, eventID); err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	return nil
}
