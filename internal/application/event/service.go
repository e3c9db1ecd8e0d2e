package event

import (
	"strings"
	"time"
)

type Service struct {
	repo  EventRepo
	cache Cache
	clock Clock

	// Config for TTLs
	ttlDetails time.Duration
	ttlList    time.Duration
}

func New(
	repo EventRepo,
	clock Clock,
	cache Cache,
	ttlDetails, ttlList time.Duration,
) *Service {
	// Defaults if 0
	if ttlDetails == 0 {
		ttlDetails = 5 * time.Minute
	}
	if ttlList == 0 {
		ttlList = 15 * time.Second
	}

	return &Service{
		repo:       repo,
		cache:      cache,
		clock:      clock,
		ttlDetails: ttlDetails,
		ttlList:    ttlList,
	}
}

const (
	RoleUser  = "user"
	RoleHost  = "host"
	RoleAdmin = "admin"
)

func isHost(role string) bool  { return role == RoleHost }
func isAdmin(role string) bool { return role == RoleAdmin }

func canCreate(role string) bool {
	return isHost(role) || isAdmin(role)
}

// canSeePending: moderation queue is visible to admins and to the submitting host.
func canSeePending(actorID, actorRole, hostID string) bool {
	if isAdmin(actorRole) {
		return true
	}
	return strings.TrimSpace(actorID) != "" && actorID == hostID
}
