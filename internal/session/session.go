// Package session owns the durable session/evidence model and its on-disk
// representation: one directory per session holding a metadata.json and one
// PNG per evidence item. Sessions returned to callers are independent
// snapshots; all mutation goes through Store operations.
package session

import (
	"fmt"
	"time"
)

// metadataTimeLayout is the fixed pattern used in metadata files. Timestamps
// are always UTC at second precision.
const metadataTimeLayout = "2006-01-02T15:04:05Z"

// Timestamp is a time.Time that marshals with the metadata pattern.
type Timestamp time.Time

// Now returns the current time truncated to the precision the metadata
// format can round-trip.
func Now() Timestamp {
	return Timestamp(time.Now().UTC().Truncate(time.Second))
}

// Time returns the underlying time value.
func (t Timestamp) Time() time.Time { return time.Time(t) }

// Equal reports whether two timestamps denote the same instant.
func (t Timestamp) Equal(other Timestamp) bool {
	return time.Time(t).Equal(time.Time(other))
}

// After reports whether t is later than other.
func (t Timestamp) After(other Timestamp) bool {
	return time.Time(t).After(time.Time(other))
}

func (t Timestamp) String() string {
	return time.Time(t).UTC().Format(metadataTimeLayout)
}

// MarshalJSON encodes the fixed UTC pattern.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON decodes the fixed UTC pattern.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("timestamp is not a JSON string: %s", s)
	}
	parsed, err := time.ParseInLocation(metadataTimeLayout, s[1:len(s)-1], time.UTC)
	if err != nil {
		return fmt.Errorf("parsing timestamp: %w", err)
	}
	*t = Timestamp(parsed)
	return nil
}

// Session is a named collection of evidence captured during one testing
// effort. The ID is assigned at creation and never changes; evidence order is
// capture order.
type Session struct {
	ID        string     `json:"sessionId"`
	Name      string     `json:"sessionName"`
	CreatedAt Timestamp  `json:"createdAt"`
	Evidence  []Evidence `json:"evidenceList"`
}

// Evidence is one persisted, annotated screenshot plus its note and capture
// time. Filename resolves to a PNG inside the owning session's directory.
type Evidence struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Timestamp Timestamp `json:"timestamp"`
	Note      string    `json:"note"`
}

// EvidenceByID returns the evidence with the given id, or nil.
func (s *Session) EvidenceByID(id string) *Evidence {
	for i := range s.Evidence {
		if s.Evidence[i].ID == id {
			return &s.Evidence[i]
		}
	}
	return nil
}

// clone returns a deep copy so stored state never aliases caller-held
// snapshots.
func (s *Session) clone() *Session {
	dup := *s
	dup.Evidence = make([]Evidence, len(s.Evidence))
	copy(dup.Evidence, s.Evidence)
	return &dup
}
