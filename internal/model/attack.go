package model

import "time"

// Attack is one entry in the append-only attack event log. TimeReduction is
// the penalty that was applied, in seconds.
type Attack struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	RoomID        string    `json:"roomId" bson:"roomId"`
	AttackerID    string    `json:"attackerId" bson:"attackerId"`
	TargetID      string    `json:"targetId" bson:"targetId"`
	Timestamp     time.Time `json:"timestamp" bson:"timestamp"`
	TimeReduction int       `json:"timeReduction" bson:"timeReduction"`
}
