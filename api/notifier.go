package api

// Notifier displays a failure message to the user.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Notify calls f(message).
func (f NotifierFunc) Notify(message string) {
	f(message)
}

type discardNotifier struct{}

func (discardNotifier) Notify(string) {}
