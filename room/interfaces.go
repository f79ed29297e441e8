package room

// Broadcaster is the outbound side of a room: snapshots and events go out
// through it after every mutating command. Declared here rather than in the
// broadcast package to break the import cycle between room and broadcast.
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
}
