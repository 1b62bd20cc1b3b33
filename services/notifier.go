package services

// Notifier pushes realtime events to a user's open connections. Delivery is
// best effort: a user without a connection simply misses the event.
type Notifier interface {
	NotifyUser(userID int, eventType string, payload interface{})
}

type noopNotifier struct{}

func (noopNotifier) NotifyUser(int, string, interface{}) {}

func notifierOrNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
