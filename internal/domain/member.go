package domain

// ConnID identifies one live transport connection. It is assigned by the
// gateway and is not stable across reconnects.
type ConnID string

// Member represents one connection's presence in a room.
// No transport or lifecycle logic here.
type Member struct {
	ConnID      ConnID
	DisplayName string
	// Duration is whatever the client last reported, in seconds.
	Duration int64
	IsHost   bool
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(id ConnID, displayName string, duration int64) *Member {
	return &Member{ConnID: id, DisplayName: displayName, Duration: duration}
}
