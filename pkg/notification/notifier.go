package notification

import (
	"Rongsokin-Backend/entities"
	"Rongsokin-Backend/internal/utils/mailing"
	"context"
	"fmt"
	"sync"
)

type Event string

const (
	EventRequestAccepted  Event = "RequestAccepted"
	EventPickupStarted    Event = "PickupStarted"
	EventPickupCompleted  Event = "PickupCompleted"
	EventRequestCancelled Event = "RequestCancelled"
)

// maxTracked bounds the dedup map; on overflow the tracking state is reset,
// which can re-send a notification but never lose one.
const maxTracked = 2048

type (
	Notifier interface {
		Notify(ctx context.Context, recipient *entities.User, event Event, requestID string, status string) error
	}

	mailNotifier struct {
		mu       sync.Mutex
		notified map[string]string // request ID -> last notified status
	}
)

func NewMailNotifier() Notifier {
	return &mailNotifier{
		notified: make(map[string]string),
	}
}

func (n *mailNotifier) Notify(ctx context.Context, recipient *entities.User, event Event, requestID string, status string) error {
	if recipient == nil || recipient.Email == "" {
		return nil
	}

	if n.alreadyNotified(requestID, status) {
		return nil
	}

	subject, body := formatMessage(recipient.Name, event, requestID)
	if err := mailing.SendMail(recipient.Email, subject, body); err != nil {
		n.clearNotified(requestID)
		return err
	}
	return nil
}

func (n *mailNotifier) alreadyNotified(requestID, status string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if last, ok := n.notified[requestID]; ok && last == status {
		return true
	}
	if len(n.notified) >= maxTracked {
		n.notified = make(map[string]string)
	}
	n.notified[requestID] = status
	return false
}

func (n *mailNotifier) clearNotified(requestID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.notified, requestID)
}

func formatMessage(name string, event Event, requestID string) (string, string) {
	switch event {
	case EventRequestAccepted:
		return "Your pickup request has been accepted",
			fmt.Sprintf("<p>Hi %s,</p><p>A collector has accepted your pickup request <b>%s</b> and will be on the way soon.</p>", name, requestID)
	case EventPickupStarted:
		return "Your pickup is on the way",
			fmt.Sprintf("<p>Hi %s,</p><p>The collector for pickup request <b>%s</b> is on the way to your location.</p>", name, requestID)
	case EventPickupCompleted:
		return "Your pickup has been completed",
			fmt.Sprintf("<p>Hi %s,</p><p>Pickup request <b>%s</b> has been completed. Check the app for your settlement details.</p>", name, requestID)
	case EventRequestCancelled:
		return "Your pickup request was cancelled",
			fmt.Sprintf("<p>Hi %s,</p><p>Pickup request <b>%s</b> was cancelled by the collector. You can create a new request at any time.</p>", name, requestID)
	default:
		return "Pickup request update",
			fmt.Sprintf("<p>Hi %s,</p><p>There is an update on your pickup request <b>%s</b>.</p>", name, requestID)
	}
}
