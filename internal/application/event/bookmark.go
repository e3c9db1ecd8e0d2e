package event

import (
	"context"
	"strings"

	"github.com/baechuer/real-time-ressys/services/discovery-service/internal/domain"
)

func (s *Service) Bookmark(ctx context.Context, eventID, viewerID, viewerRole string) error {
	viewerID = strings.TrimSpace(viewerID)
	if viewerID == "" {
		return domain.ErrForbidden("login required")
	}
	// bookmarking requires the event to be visible to the viewer
	if _, err := s.Get(ctx, eventID, viewerID, viewerRole); err != nil {
		return err
	}
	return s.repo.AddBookmark(ctx, viewerID, eventID)
}

func (s *Service) Unbookmark(ctx context.Context, eventID, viewerID string) error {
	viewerID = strings.TrimSpace(viewerID)
	if viewerID == "" {
		return domain.ErrForbidden("login required")
	}
	return s.repo.RemoveBookmark(ctx, viewerID, eventID)
}
