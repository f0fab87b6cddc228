package model

import "time"

type RoomStatus string

const (
	RoomWaiting  RoomStatus = "waiting"
	RoomActive   RoomStatus = "active"
	RoomFinished RoomStatus = "finished"
)

// MatchRules is the per-room match configuration, snapshotted onto the room
// at creation so individual rooms (and tests) can override the defaults.
type MatchRules struct {
	MaxPlayers       int `json:"maxPlayers" bson:"maxPlayers"`
	MaxRounds        int `json:"maxRounds" bson:"maxRounds"`
	StartThreshold   int `json:"startThreshold" bson:"startThreshold"`
	StartDelaySec    int `json:"startDelaySec" bson:"startDelaySec"`
	MaxTimeSec       int `json:"maxTimeSec" bson:"maxTimeSec"`
	AttackPenaltySec int `json:"attackPenaltySec" bson:"attackPenaltySec"`
	RoundDelaySec    int `json:"roundDelaySec" bson:"roundDelaySec"`
}

// Room is one match instance. MatchRound counts room-wide round advances;
// it is unrelated to a player's personal ChallengesCompleted counter.
type Room struct {
	ID         string     `json:"id" bson:"_id,omitempty"`
	Status     RoomStatus `json:"status" bson:"status"`
	StartTime  *time.Time `json:"startTime,omitempty" bson:"startTime,omitempty"`
	MatchRound int        `json:"matchRound" bson:"matchRound"`
	Rules      MatchRules `json:"rules" bson:"rules"`
	CreatedAt  time.Time  `json:"createdAt" bson:"createdAt"`
}

// IsOpen reports whether the room can still accept players.
func (r *Room) IsOpen() bool {
	return r.Status == RoomWaiting
}
