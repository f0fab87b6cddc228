package model

import "github.com/golang-jwt/jwt/v5"

// PlayerClaims is the room-scoped JWT payload issued on join.
type PlayerClaims struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	jwt.RegisteredClaims
}
