package model

// RoomState is the projection the client renders: the room, its full player
// roster, the requesting player's question (when resolved), and attacks
// recent enough to animate.
type RoomState struct {
	Room          *Room     `json:"room"`
	Players       []*Player `json:"players"`
	Question      *Question `json:"question,omitempty"`
	RecentAttacks []*Attack `json:"recentAttacks"`
}

// WinnerStatus reports whether the match has resolved to a single survivor.
type WinnerStatus struct {
	ActivePlayers []*Player `json:"activePlayers"`
	GameOver      bool      `json:"gameOver"`
}
