package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgType string, payload interface{})
	BroadcastToPlayer(roomID, playerID string, msgType string, payload interface{})
}

// noopBroadcaster stands in until a hub is injected.
type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastToRoom(string, string, interface{})           {}
func (noopBroadcaster) BroadcastToPlayer(string, string, string, interface{}) {}
