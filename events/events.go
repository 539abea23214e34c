// Package events fans out change notifications to websocket subscribers
package events

import "time"

// Event types
const (
	ProjectCreated   = "project.created"
	ProjectUpdated   = "project.updated"
	ProjectDeleted   = "project.deleted"
	PhotoCreated     = "photo.created"
	PhotoUpdated     = "photo.updated"
	PhotoDeleted     = "photo.deleted"
	AnnotationsSaved = "annotations.saved"
	MemberInvited    = "member.invited"
	MemberUpdated    = "member.updated"
	MemberRemoved    = "member.removed"
	CaptureOpened    = "capture.opened"
	CaptureClosed    = "capture.closed"
	ReportGenerated  = "report.generated"
)

// Event is a single change notification
type Event struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id,omitempty"`
	ProjectID int64     `json:"projectId,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher accepts events. Implementations must not block the caller.
type Publisher interface {
	Publish(Event)
}

// Nop discards every event
type Nop struct{}

func (Nop) Publish(Event) {}
