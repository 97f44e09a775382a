package core

import "github.com/dkeye/StudySync/internal/domain"

// DefaultChatCapacity is how many messages a room keeps for replay.
const DefaultChatCapacity = 50

// ChatBuffer is a bounded FIFO of chat messages.
// It is not safe for concurrent use; the owning room guards it.
type ChatBuffer struct {
	capacity int
	items    []domain.ChatMessage
}

func NewChatBuffer(capacity int) *ChatBuffer {
	if capacity <= 0 {
		capacity = DefaultChatCapacity
	}
	return &ChatBuffer{
		capacity: capacity,
		items:    make([]domain.ChatMessage, 0, capacity),
	}
}

// Append pushes m and reports whether the oldest entry was evicted to make room.
func (b *ChatBuffer) Append(m domain.ChatMessage) bool {
	if len(b.items) < b.capacity {
		b.items = append(b.items, m)
		return false
	}
	copy(b.items, b.items[1:])
	b.items[len(b.items)-1] = m
	return true
}

// Snapshot returns a copy of the buffer, oldest first.
func (b *ChatBuffer) Snapshot() []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(b.items))
	copy(out, b.items)
	return out
}

func (b *ChatBuffer) Len() int { return len(b.items) }
func (b *ChatBuffer) Cap() int { return b.capacity }
