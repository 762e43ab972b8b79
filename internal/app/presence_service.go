package app

import (
	"context"
	"fmt"

	"github.com/example/soup/internal/core/presence"
	"github.com/example/soup/internal/ports/primary"
	"github.com/example/soup/internal/ports/secondary"
)

// PresenceServiceImpl implements the PresenceService interface.
type PresenceServiceImpl struct {
	playerRepo secondary.PlayerRepository
	cfg        SessionConfig
}

var _ primary.PresenceService = (*PresenceServiceImpl)(nil)

// NewPresenceService creates a new PresenceService with injected dependencies.
func NewPresenceService(playerRepo secondary.PlayerRepository, cfg SessionConfig) *PresenceServiceImpl {
	return &PresenceServiceImpl{
		playerRepo: playerRepo,
		cfg:        cfg.withDefaults(),
	}
}

// Roster lists players by score with their online flag.
func (s *PresenceServiceImpl) Roster(ctx context.Context) ([]*primary.RosterEntry, error) {
	records, err := s.playerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	members := presence.Roster(recordsToPresence(records), s.cfg.Now(), s.cfg.PresenceWindow)
	return membersToRoster(members), nil
}
