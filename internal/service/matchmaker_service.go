package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/xypp3/leetcode-battleroyal/internal/cache"
	"github.com/xypp3/leetcode-battleroyal/internal/model"
	"github.com/xypp3/leetcode-battleroyal/internal/repository"
)

// MatchmakerService routes joining players into a waiting room with capacity,
// creating one when none exists, and arms the room's start timer once the
// start threshold is reached.
type MatchmakerService struct {
	roomRepo    repository.RoomRepo
	playerRepo  repository.PlayerRepo
	roomCache   cache.RoomCache
	sched       TaskScheduler
	authSvc     *AuthService
	rules       model.MatchRules
	broadcaster Broadcaster
}

// NewMatchmakerService creates a new matchmaker service
func NewMatchmakerService(
	roomRepo repository.RoomRepo,
	playerRepo repository.PlayerRepo,
	roomCache cache.RoomCache,
	sched TaskScheduler,
	authSvc *AuthService,
	rules model.MatchRules,
) *MatchmakerService {
	return &MatchmakerService{
		roomRepo:    roomRepo,
		playerRepo:  playerRepo,
		roomCache:   roomCache,
		sched:       sched,
		authSvc:     authSvc,
		rules:       rules,
		broadcaster: noopBroadcaster{},
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *MatchmakerService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Join places the named player into an open room and returns their identity
// plus a room-scoped token.
func (s *MatchmakerService) Join(ctx context.Context, playerName string) (*model.JoinResponse, error) {
	room, err := s.findOpenRoom(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	if room == nil {
		room = &model.Room{
			Status: model.RoomWaiting,
			Rules:  s.rules,
		}
		if err := s.roomRepo.Create(ctx, room); err != nil {
			return nil, fmt.Errorf("failed to create room: %w", err)
		}
		if err := s.roomCache.SetStatus(ctx, room.ID, model.RoomWaiting); err != nil {
			log.Printf("[Matchmaker] failed to cache room %s status: %v", room.ID, err)
		}
	}

	player := &model.Player{
		RoomID:        room.ID,
		Name:          playerName,
		Status:        model.PlayerWaiting,
		TimeRemaining: room.Rules.MaxTimeSec,
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	token, err := s.authSvc.GeneratePlayerToken(room.ID, player.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.broadcaster.BroadcastToRoom(room.ID, "player_joined", map[string]string{
		"playerId": player.ID,
		"name":     player.Name,
	})

	if err := s.maybeArmStart(ctx, room); err != nil {
		// The player joined fine; a failed arm only delays the match until
		// the next qualifying join retries it.
		log.Printf("[Matchmaker] failed to arm start for room %s: %v", room.ID, err)
	}

	return &model.JoinResponse{
		RoomID:   room.ID,
		PlayerID: player.ID,
		Token:    token,
	}, nil
}

// findOpenRoom returns a waiting room with spare capacity, or nil.
func (s *MatchmakerService) findOpenRoom(ctx context.Context) (*model.Room, error) {
	rooms, err := s.roomRepo.FindWaiting(ctx)
	if err != nil {
		return nil, err
	}

	for _, room := range rooms {
		count, err := s.playerRepo.CountByRoom(ctx, room.ID)
		if err != nil {
			return nil, err
		}
		if count < int64(room.Rules.MaxPlayers) {
			return room, nil
		}
	}

	return nil, nil
}

// maybeArmStart schedules the room activation once the minimum viable match
// size is reached. The cache's SETNX guard ensures only the first qualifying
// join arms the timer; the activation handler is idempotent anyway.
func (s *MatchmakerService) maybeArmStart(ctx context.Context, room *model.Room) error {
	count, err := s.playerRepo.CountByRoom(ctx, room.ID)
	if err != nil {
		return err
	}
	if count < int64(room.Rules.StartThreshold) {
		return nil
	}

	armed, err := s.roomCache.ArmStart(ctx, room.ID)
	if err != nil {
		return err
	}
	if !armed {
		return nil
	}

	delay := time.Duration(room.Rules.StartDelaySec) * time.Second
	log.Printf("[Matchmaker] room %s reached %d players, starting in %v", room.ID, count, delay)

	return s.sched.Schedule(ctx, delay, OpActivateRoom, ActivateRoomTask{RoomID: room.ID})
}
