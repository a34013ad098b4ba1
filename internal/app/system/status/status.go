// Package status defines the assignment lifecycle vocabulary and the
// mapping between the canonical tokens used throughout the app and the
// wire tokens persisted by the backing store.
package status

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Status is the canonical assignment status.
// The lifecycle is pending → in_progress → completed; completed is terminal.
type Status string

const (
	Pending    Status = "pending"
	InProgress Status = "in_progress"
	Completed  Status = "completed"
)

// wire maps canonical statuses to the tokens the storage layer uses.
// The legacy store was built against a Portuguese vocabulary; the mapping
// must stay total and invertible over the three states.
var wire = map[Status]string{
	Pending:    "pendente",
	InProgress: "em_andamento",
	Completed:  "concluida",
}

var fromWire = map[string]Status{
	"pendente":     Pending,
	"em_andamento": InProgress,
	"concluida":    Completed,
}

// IsValid reports whether s is one of the three canonical statuses.
func (s Status) IsValid() bool {
	_, ok := wire[s]
	return ok
}

// Wire returns the storage-layer token for s.
func (s Status) Wire() string {
	return wire[s]
}

// Parse converts a canonical token ("pending", "in_progress", "completed")
// into a Status.
func Parse(v string) (Status, error) {
	s := Status(v)
	if !s.IsValid() {
		return "", fmt.Errorf(`status must be "pending"|"in_progress"|"completed", got %q`, v)
	}
	return s, nil
}

// ParseWire converts a storage-layer token into a Status.
func ParseWire(v string) (Status, error) {
	s, ok := fromWire[v]
	if !ok {
		return "", fmt.Errorf("unknown wire status %q", v)
	}
	return s, nil
}

// MarshalBSONValue persists the wire token so documents stay compatible
// with the existing collection contents.
func (s Status) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if !s.IsValid() {
		return 0, nil, fmt.Errorf("cannot marshal invalid status %q", string(s))
	}
	return bson.MarshalValue(s.Wire())
}

// UnmarshalBSONValue translates the wire token back to the canonical form.
func (s *Status) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var raw string
	if err := bson.UnmarshalValue(t, data, &raw); err != nil {
		return err
	}
	parsed, err := ParseWire(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Priority is the assignment priority. Unlike Status it uses the same
// tokens on the wire and in the app.
type Priority string

const (
	Low    Priority = "low"
	Medium Priority = "medium"
	High   Priority = "high"
	Urgent Priority = "urgent"
)

// IsValid reports whether p is one of the four priorities.
func (p Priority) IsValid() bool {
	switch p {
	case Low, Medium, High, Urgent:
		return true
	}
	return false
}
