package amqp

import (
	"context"
	"log/slog"
	"sync"

	applog "budgettracker/internal/log"
	"budgettracker/internal/session"
)

// Publisher is the broker side of the Notifier.
type Publisher interface {
	Publish(ctx context.Context, routingKey, messageID string, body []byte) error
}

// Notifier turns session changes into broker messages. OnSessionChange
// only enqueues, so the session store never waits on the network; Run
// drains the queue. Messages that do not fit the buffer are dropped and
// logged.
type Notifier struct {
	pub        Publisher
	routingKey string
	queue      chan *SessionChangedMessage

	mu         sync.Mutex
	lastUserID string
}

func NewNotifier(pub Publisher, routingKey string, buffer int) *Notifier {
	if buffer < 1 {
		buffer = 16
	}
	return &Notifier{
		pub:        pub,
		routingKey: routingKey,
		queue:      make(chan *SessionChangedMessage, buffer),
	}
}

// Seed records the user of the session loaded at startup so the first
// logout event names them.
func (n *Notifier) Seed(sess session.Session) {
	n.mu.Lock()
	n.lastUserID = sess.UserID
	n.mu.Unlock()
}

// OnSessionChange is a session.Listener.
func (n *Notifier) OnSessionChange(sess session.Session) {
	n.mu.Lock()
	msg := NewSessionChangedMessage(sess, n.lastUserID)
	n.lastUserID = sess.UserID
	n.mu.Unlock()

	select {
	case n.queue <- msg:
	default:
		slog.Warn("Session event queue full, dropping event",
			applog.FieldComponent, applog.ComponentAMQP,
			applog.FieldEventID, msg.ID,
			applog.FieldOperation, msg.Event)
	}
}

// Run publishes queued messages until ctx is done, then flushes what is
// already queued with a fresh context.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case msg := <-n.queue:
			n.publish(ctx, msg)
		case <-ctx.Done():
			for {
				select {
				case msg := <-n.queue:
					n.publish(context.Background(), msg)
				default:
					return
				}
			}
		}
	}
}

func (n *Notifier) publish(ctx context.Context, msg *SessionChangedMessage) {
	body, err := msg.ToJSON()
	if err != nil {
		slog.ErrorContext(ctx, "Failed to marshal session event",
			applog.FieldComponent, applog.ComponentAMQP,
			applog.FieldError, err)
		return
	}
	if err := n.pub.Publish(ctx, n.routingKey, msg.ID, body); err != nil {
		slog.ErrorContext(ctx, "Failed to publish session event",
			applog.FieldComponent, applog.ComponentAMQP,
			applog.FieldEventID, msg.ID,
			applog.FieldOperation, msg.Event,
			applog.FieldError, err)
		return
	}
	slog.InfoContext(ctx, "Published session event",
		applog.FieldComponent, applog.ComponentAMQP,
		applog.FieldEventID, msg.ID,
		applog.FieldOperation, msg.Event,
		applog.FieldUserID, msg.UserID)
}
