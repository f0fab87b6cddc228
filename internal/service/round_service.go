package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/xypp3/leetcode-battleroyal/internal/cache"
	"github.com/xypp3/leetcode-battleroyal/internal/model"
	"github.com/xypp3/leetcode-battleroyal/internal/repository"
)

// RoundService is the round controller: it either rolls every completed
// player into the next room-wide round or ends the match when at most one
// contender remains.
type RoundService struct {
	roomRepo    repository.RoomRepo
	playerRepo  repository.PlayerRepo
	roomCache   cache.RoomCache
	broadcaster Broadcaster
}

// NewRoundService creates a new round service
func NewRoundService(
	roomRepo repository.RoomRepo,
	playerRepo repository.PlayerRepo,
	roomCache cache.RoomCache,
) *RoundService {
	return &RoundService{
		roomRepo:    roomRepo,
		playerRepo:  playerRepo,
		roomCache:   roomCache,
		broadcaster: noopBroadcaster{},
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *RoundService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// HandleAdvanceRound adapts Advance to a scheduled task delivery.
func (s *RoundService) HandleAdvanceRound(ctx context.Context, payload json.RawMessage) error {
	var task AdvanceRoundTask
	if err := json.Unmarshal(payload, &task); err != nil {
		return err
	}
	return s.Advance(ctx, task.RoomID)
}

// Advance moves the room into its next round. This is also the
// authoritative match-end check, independent of the attack resolver's own
// short-circuit: both paths converge on the same guarded terminal state.
func (s *RoundService) Advance(ctx context.Context, roomID string) error {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}
	if room == nil {
		log.Printf("[Round] advance for unknown room %s, skipping", roomID)
		return nil
	}
	if room.Status == model.RoomFinished {
		log.Printf("[Round] room %s already finished, skipping advance", roomID)
		return nil
	}

	players, err := s.playerRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to list players: %w", err)
	}

	active := contenders(players)
	if len(active) <= 1 {
		finished, err := s.roomRepo.Finish(ctx, roomID)
		if err != nil {
			return fmt.Errorf("failed to finish room: %w", err)
		}
		if finished {
			if err := s.roomCache.SetStatus(ctx, roomID, model.RoomFinished); err != nil {
				log.Printf("[Round] failed to cache room %s status: %v", roomID, err)
			}
			log.Printf("[Round] room %s finished with %d contenders", roomID, len(active))
			s.broadcaster.BroadcastToRoom(roomID, "match_finished", map[string]interface{}{
				"roomId": roomID,
			})
		}
		return nil
	}

	if err := s.roomRepo.AdvanceRound(ctx, roomID, time.Now()); err != nil {
		return fmt.Errorf("failed to advance round: %w", err)
	}

	// Completed players start the round fresh; players still mid-challenge
	// keep their question, code, and clock untouched.
	for _, p := range active {
		if p.Status != model.PlayerCompleted {
			continue
		}
		if _, err := s.playerRepo.ReviveCompleted(ctx, p.ID, room.Rules.MaxTimeSec); err != nil {
			return fmt.Errorf("failed to revive player %s: %w", p.ID, err)
		}
	}

	log.Printf("[Round] room %s advanced to round %d", roomID, room.MatchRound+1)
	s.broadcaster.BroadcastToRoom(roomID, "round_started", map[string]interface{}{
		"matchRound": room.MatchRound + 1,
	})

	return nil
}
