package service

import (
	"context"
	"time"
)

// Scheduled operation names. Handlers for these are registered against the
// scheduler at startup; every handler tolerates duplicate and stale
// deliveries by re-checking its precondition.
const (
	OpActivateRoom  = "room.activate"
	OpResolveAttack = "attack.resolve"
	OpAdvanceRound  = "round.advance"
)

// ActivateRoomTask fires when a waiting room's grace period elapses.
type ActivateRoomTask struct {
	RoomID string `json:"roomId"`
}

// ResolveAttackTask fires immediately after a player completes a challenge.
type ResolveAttackTask struct {
	PlayerID string `json:"playerId"`
	RoomID   string `json:"roomId"`
}

// AdvanceRoundTask fires after the round grace delay once every active
// player has completed.
type AdvanceRoundTask struct {
	RoomID string `json:"roomId"`
}

// TaskScheduler is the delayed-execution facility the services require.
// Fire-and-forget, at-least-once; an armed task cannot be revoked.
type TaskScheduler interface {
	Schedule(ctx context.Context, delay time.Duration, op string, payload interface{}) error
}
