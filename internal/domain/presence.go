package domain

import "time"

type Status string

const StatusOnline Status = "online"

// PresenceEntry binds a user to the channel that currently routes to it.
type PresenceEntry struct {
	UserID      UserID    `json:"userId"`
	ChannelID   ChannelID `json:"channelId"`
	Status      Status    `json:"status"`
	ConnectedAt time.Time `json:"connectedAt"`
}
