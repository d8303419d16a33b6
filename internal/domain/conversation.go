package domain

import "encoding/json"

type ConversationID string

// Message is a chat message relayed verbatim. Only the conversation id is
// interpreted by the server; every other field belongs to the clients.
type Message struct {
	ConversationID ConversationID `json:"conversationId" validate:"required"`

	raw json.RawMessage
}

func (m *Message) UnmarshalJSON(b []byte) error {
	var head struct {
		ConversationID ConversationID `json:"conversationId"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	m.ConversationID = head.ConversationID
	m.raw = append(m.raw[:0], b...)
	return nil
}

func (m Message) MarshalJSON() ([]byte, error) {
	if len(m.raw) == 0 {
		return json.Marshal(struct {
			ConversationID ConversationID `json:"conversationId"`
		}{m.ConversationID})
	}
	return m.raw, nil
}

// ReadReceipt reports which messages a user has seen in a conversation.
type ReadReceipt struct {
	ConversationID ConversationID `json:"conversationId" validate:"required"`
	UserID         UserID         `json:"userId" validate:"required"`
	MessageIDs     []string       `json:"messageIds" validate:"required"`
}

// Typing is the payload of startTyping / stopTyping.
type Typing struct {
	ConversationID ConversationID `json:"conversationId" validate:"required"`
	UserID         UserID         `json:"userId" validate:"required"`
}

// RoomLeave is announced to a conversation when a member's channel closes.
type RoomLeave struct {
	UserID UserID         `json:"userId,omitempty"`
	Room   ConversationID `json:"room"`
}
