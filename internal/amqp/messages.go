package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"budgettracker/internal/session"
)

// Session event kinds.
const (
	EventLogin  = "login"
	EventLogout = "logout"
)

// SessionChangedMessage announces a login or logout. It never carries the
// token.
type SessionChangedMessage struct {
	ID         string    `json:"id"`
	Event      string    `json:"event"`
	UserID     string    `json:"userId,omitempty"`
	Generation uint64    `json:"generation"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewSessionChangedMessage describes the transition to sess. previousUserID
// names the user being logged out when sess is empty.
func NewSessionChangedMessage(sess session.Session, previousUserID string) *SessionChangedMessage {
	msg := &SessionChangedMessage{
		ID:         uuid.NewString(),
		Generation: sess.Generation,
		Timestamp:  time.Now().UTC(),
	}
	if sess.Empty() {
		msg.Event = EventLogout
		msg.UserID = previousUserID
	} else {
		msg.Event = EventLogin
		msg.UserID = sess.UserID
	}
	return msg
}

// ToJSON converts the message to JSON bytes
func (m *SessionChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SessionChangedMessageFromJSON decodes a message.
func SessionChangedMessageFromJSON(data []byte) (*SessionChangedMessage, error) {
	var msg SessionChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
