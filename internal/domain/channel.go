package domain

import "github.com/google/uuid"

// ChannelID identifies one live duplex connection. It is never reused.
type ChannelID string

func NewChannelID() ChannelID {
	return ChannelID(uuid.NewString())
}
