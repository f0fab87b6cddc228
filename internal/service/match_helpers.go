package service

import (
	"context"
	"fmt"
	"log"

	"github.com/xypp3/leetcode-battleroyal/internal/cache"
	"github.com/xypp3/leetcode-battleroyal/internal/model"
	"github.com/xypp3/leetcode-battleroyal/internal/repository"
)

// survivors filters players who have not been eliminated.
func survivors(players []*model.Player) []*model.Player {
	var alive []*model.Player
	for _, p := range players {
		if p.Alive() {
			alive = append(alive, p)
		}
	}
	return alive
}

// contenders filters players still in contention: neither eliminated nor
// already the winner.
func contenders(players []*model.Player) []*model.Player {
	var active []*model.Player
	for _, p := range players {
		if !p.Out() {
			active = append(active, p)
		}
	}
	return active
}

// crownWinner declares the sole survivor and finishes the room. Both
// transitions are guarded, so racing callers converge on one winner and one
// terminal room state.
func crownWinner(
	ctx context.Context,
	roomRepo repository.RoomRepo,
	playerRepo repository.PlayerRepo,
	roomCache cache.RoomCache,
	broadcaster Broadcaster,
	roomID, winnerID string,
) error {
	won, err := playerRepo.MarkWinner(ctx, winnerID)
	if err != nil {
		return fmt.Errorf("failed to mark winner: %w", err)
	}

	finished, err := roomRepo.Finish(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to finish room: %w", err)
	}
	if finished {
		if err := roomCache.SetStatus(ctx, roomID, model.RoomFinished); err != nil {
			log.Printf("[Match] failed to cache room %s status: %v", roomID, err)
		}
	}

	if won {
		log.Printf("[Match] player %s wins room %s", winnerID, roomID)
		broadcaster.BroadcastToRoom(roomID, "match_finished", map[string]string{
			"winnerId": winnerID,
		})
	}

	return nil
}
