package services

import (
	"log/slog"

	pubnub "github.com/pubnub/go/v7"
)

// Notifier publishes realtime events to organizer channels. Publishing is
// fire-and-forget; a failed publish never fails the request that caused it.
type Notifier interface {
	Notify(channel string, message map[string]any)
}

type pubnubNotifier struct {
	pn *pubnub.PubNub
}

// NewPubNubNotifier wraps a PubNub client as a Notifier.
func NewPubNubNotifier(pn *pubnub.PubNub) Notifier {
	return &pubnubNotifier{pn: pn}
}

func (n *pubnubNotifier) Notify(channel string, message map[string]any) {
	go func() {
		_, _, err := n.pn.Publish().
			Channel(channel).
			Message(message).
			Execute()
		if err != nil {
			slog.Error("notifier: publish failed", "channel", channel, "error", err)
		}
	}()
}

type noopNotifier struct{}

// NewNoopNotifier returns a Notifier that drops everything, used when no
// PubNub keys are configured and in tests.
func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func (noopNotifier) Notify(string, map[string]any) {}

// OrganizerChannel is the per-organizer realtime channel name.
func OrganizerChannel(organizerID string) string {
	return "organizer-" + organizerID
}
