package app

import (
	"errors"
	"fmt"

	"github.com/dkeye/pulse/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

func (a BackpressureAction) String() string {
	switch a {
	case DropFrame:
		return "drop"
	case KickMember:
		return "kick"
	default:
		return "none"
	}
}

var ErrUnknownPolicy = errors.New("unknown backpressure policy")

// Policy decides what happens to a channel whose send queue is full.
type Policy interface {
	OnBackPressure(ch domain.ChannelID) BackpressureAction
}

// SimplePolicy closes slow channels.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.ChannelID) BackpressureAction {
	return KickMember
}

// DropPolicy loses the frame for the slow channel and keeps it connected.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(domain.ChannelID) BackpressureAction {
	return DropFrame
}

func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "drop":
		return DropPolicy{}, nil
	case "kick":
		return SimplePolicy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}
