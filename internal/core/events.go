package core

import "encoding/json"

type Event string

// Client to server.
const (
	EventJoinConversation   Event = "joinConversation"
	EventLeaveConversation  Event = "leaveConversation"
	EventSendMessage        Event = "sendMessage"
	EventMessageRead        Event = "messageRead"
	EventStartTyping        Event = "startTyping"
	EventStopTyping         Event = "stopTyping"
	EventRequestOnlineUsers Event = "request-online-users"
	EventCallUser           Event = "call-user"
	EventAnswerMade         Event = "answer-made"
	EventICECandidate       Event = "ice-candidate"
	EventPing               Event = "ping"
)

// Server to client. messageRead, startTyping, stopTyping and ice-candidate
// keep their inbound names.
const (
	EventUserOnline      Event = "userOnline"
	EventUserOffline     Event = "userOffline"
	EventOnlineUsersList Event = "onlineUsersList"
	EventNewMessage      Event = "newMessage"
	EventIncomingCall    Event = "incoming-call"
	EventCallAccepted    Event = "call-accepted"
	EventUserLeftRoom    Event = "user-left-room"
	EventError           Event = "error"
	EventPong            Event = "pong"
)

// Envelope is the JSON frame exchanged in both directions.
type Envelope struct {
	Type Event           `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Encode wraps payload into an Envelope frame.
func Encode(event Event, payload any) (Frame, error) {
	env := Envelope{Type: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Data = data
	}
	return json.Marshal(env)
}
