package model

import "time"

type PlayerStatus string

const (
	PlayerWaiting    PlayerStatus = "waiting"
	PlayerPlaying    PlayerStatus = "playing"
	PlayerCompleted  PlayerStatus = "completed"
	PlayerEliminated PlayerStatus = "eliminated"
	PlayerWinner     PlayerStatus = "winner"
)

// Player is a participant in a room. TimeRemaining is the authoritative
// server-side time budget in seconds; eliminated implies TimeRemaining == 0.
type Player struct {
	ID                  string       `json:"id" bson:"_id,omitempty"`
	RoomID              string       `json:"roomId" bson:"roomId"`
	Name                string       `json:"name" bson:"name"`
	Status              PlayerStatus `json:"status" bson:"status"`
	TimeRemaining       int          `json:"timeRemaining" bson:"timeRemaining"`
	ChallengesCompleted int          `json:"challengesCompleted" bson:"challengesCompleted"`
	CurrentQuestionID   string       `json:"currentQuestionId,omitempty" bson:"currentQuestionId,omitempty"`
	Code                string       `json:"code,omitempty" bson:"code,omitempty"`
	TestsPassed         int          `json:"testsPassed" bson:"testsPassed"`
	CompletionTime      *time.Time   `json:"completionTime,omitempty" bson:"completionTime,omitempty"`
	LastAttackTime      *time.Time   `json:"lastAttackTime,omitempty" bson:"lastAttackTime,omitempty"`
	JoinedAt            time.Time    `json:"joinedAt" bson:"joinedAt"`
}

// Out reports whether the player is out of the match for good.
func (p *Player) Out() bool {
	return p.Status == PlayerEliminated || p.Status == PlayerWinner
}

// Alive reports whether the player has not been eliminated.
func (p *Player) Alive() bool {
	return p.Status != PlayerEliminated
}

// JoinResponse is returned when a player joins a match.
type JoinResponse struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Token    string `json:"token"`
}
