package sse

import (
	"time"

	"github.com/PulsaGit/promo_api/internal/worker"
)

// RunNotifier is the interface services use to emit batch run events.
type RunNotifier interface {
	NotifyRunStarted(run string, snap worker.RunSnapshot)
	NotifyRunProgress(run string, snap worker.RunSnapshot)
	NotifyRunFinished(run string, snap worker.RunSnapshot)
}

// HubNotifier implements RunNotifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyRunStarted(run string, snap worker.RunSnapshot) {
	n.notify(EventRunStarted, run, snap)
}

func (n *HubNotifier) NotifyRunProgress(run string, snap worker.RunSnapshot) {
	n.notify(EventRunProgress, run, snap)
}

func (n *HubNotifier) NotifyRunFinished(run string, snap worker.RunSnapshot) {
	n.notify(EventRunFinished, run, snap)
}

func (n *HubNotifier) notify(eventType EventType, run string, snap worker.RunSnapshot) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(&RunEvent{
		Event:         eventType,
		Run:           run,
		Status:        snap.Status,
		Total:         snap.Total,
		Processed:     snap.Processed,
		CurrentNumber: snap.CurrentNumber,
		ErrorMessage:  snap.ErrorMessage,
		Timestamp:     time.Now(),
	})
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (n *NopNotifier) NotifyRunStarted(run string, snap worker.RunSnapshot)  {}
func (n *NopNotifier) NotifyRunProgress(run string, snap worker.RunSnapshot) {}
func (n *NopNotifier) NotifyRunFinished(run string, snap worker.RunSnapshot) {}
