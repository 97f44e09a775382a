package app

import (
	"fmt"

	"github.com/dkeye/StudySync/internal/core"
	"github.com/dkeye/StudySync/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a connection whose outbound queue is full.
type Policy interface {
	OnBackPressure(room core.RoomService, member domain.ConnID) BackpressureAction
}

// SimplePolicy kicks slow members. The client reconnects and resumes.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(room core.RoomService, member domain.ConnID) BackpressureAction {
	return KickMember
}

// LenientPolicy drops the frame and keeps the member.
type LenientPolicy struct{}

func (LenientPolicy) OnBackPressure(room core.RoomService, member domain.ConnID) BackpressureAction {
	return DropFrame
}

// PolicyByName maps the backpressure config value to a Policy.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "kick":
		return SimplePolicy{}, nil
	case "drop":
		return LenientPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown backpressure policy %q", name)
	}
}
