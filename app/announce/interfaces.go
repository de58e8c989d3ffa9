package announce

import (
	"context"
)

// Notification is one outbound system notification.
type Notification struct {
	Title    string
	Body     string
	Category string // important, keyword
	Keyword  string // set for keyword-category notifications
}

// SoundPlayer plays a named alert sound.
type SoundPlayer interface {
	Play(ctx context.Context, name string) error
}

// Speaker speaks text at the given rate (characters per minute) and returns
// when the utterance completes or the context expires.
type Speaker interface {
	Speak(ctx context.Context, text string, rate float64) error
}

// Notifier delivers a notification to one outbound channel.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
