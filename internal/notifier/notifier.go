package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/feral-file/flightstake-indexer/internal/domain"
)

const (
	// StreamName is the JetStream stream carrying every notification
	StreamName = "FLIGHTSTAKE"
	// SubjectPrefix is the root of every notification subject
	SubjectPrefix = "flightstake"
	// SubjectAll matches every notification subject
	SubjectAll = SubjectPrefix + ".>"
)

// Notifier reports engine activity to interested clients. Implementations
// must not block ingestion, failures are logged and swallowed.
//
//go:generate mockgen -source=notifier.go -destination=../mocks/notifier.go -package=mocks -mock_names=Notifier=MockNotifier
type Notifier interface {
	// SourceStateChanged reports a connection lifecycle transition
	SourceStateChanged(ctx context.Context, status domain.SourceStatus)
	// ProjectionApplied reports the writes committed for an event
	ProjectionApplied(ctx context.Context, ev *domain.Event, delta *domain.Delta)
	// Close releases the underlying transport
	Close()
}

// EnvelopeKind tells lifecycle and change notifications apart
type EnvelopeKind string

const (
	KindLifecycle EnvelopeKind = "lifecycle"
	KindChange    EnvelopeKind = "change"
)

// Envelope is the wire format of a notification
type Envelope struct {
	ID          string               `json:"id"`
	Kind        EnvelopeKind         `json:"kind"`
	Status      *domain.SourceStatus `json:"status,omitempty"`
	Change      *Change              `json:"change,omitempty"`
	PublishedAt time.Time            `json:"published_at"`
}

// Change is the projection delta of one event as pushed to clients
type Change struct {
	Source         domain.Source       `json:"source"`
	Event          domain.EventName    `json:"event"`
	TxHash         string              `json:"tx_hash"`
	BlockNumber    uint64              `json:"block_number"`
	LogIndex       uint                `json:"log_index"`
	TokenID        uint64              `json:"token_id"`
	Ticket         *domain.Ticket      `json:"ticket,omitempty"`
	Listing        *domain.Listing     `json:"listing,omitempty"`
	ListingRemoved bool                `json:"listing_removed,omitempty"`
	Transaction    *domain.Transaction `json:"transaction,omitempty"`
}

// NewChange builds the client view of a committed delta
func NewChange(ev *domain.Event, delta *domain.Delta) *Change {
	return &Change{
		Source:         ev.Source,
		Event:          ev.Name,
		TxHash:         ev.TxHash,
		BlockNumber:    ev.BlockNumber,
		LogIndex:       ev.LogIndex,
		TokenID:        delta.TokenID,
		Ticket:         delta.Ticket,
		Listing:        delta.CreateListing,
		ListingRemoved: delta.DeleteListing && delta.CreateListing == nil,
		Transaction:    delta.Transaction,
	}
}

// LifecycleSubject is the subject of a source's lifecycle notifications
func LifecycleSubject(source domain.Source) string {
	return fmt.Sprintf("%s.lifecycle.%s", SubjectPrefix, source)
}

// ChangeSubject is the subject of the changes produced by an event name
func ChangeSubject(name domain.EventName) string {
	return fmt.Sprintf("%s.changes.%s", SubjectPrefix, name)
}

type nop struct{}

// Nop returns a notifier that drops everything
func Nop() Notifier {
	return nop{}
}

func (nop) SourceStateChanged(context.Context, domain.SourceStatus) {}
func (nop) ProjectionApplied(context.Context, *domain.Event, *domain.Delta) {}
func (nop) Close() {}
