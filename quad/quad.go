// Package quad defines quad and triple handling.
package quad

// Defines the struct which makes the quad store possible -- the quad.
//
// At its heart, it consists of four fields -- Subject, Predicate, Object
// and Label (the graph/context). Terms relate to each other through these
// positions; the existence of a term is defined by the fact that some quad
// mentions it.
//
// This means that a complete representation of the graph is equivalent to a
// list of quads. The rest is just indexing for speed.

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalid    = errors.New("invalid quad")
	ErrIncomplete = errors.New("incomplete quad")
)

// Make creates a quad with provided raw values.
func Make(subject, predicate, object, label string) (q Quad) {
	if subject != "" {
		q.Subject = Raw(subject)
	}
	if predicate != "" {
		q.Predicate = Raw(predicate)
	}
	if object != "" {
		q.Object = Raw(object)
	}
	if label != "" {
		q.Label = Raw(label)
	}
	return
}

var (
	_ json.Marshaler   = Quad{}
	_ json.Unmarshaler = (*Quad)(nil)
)

// Quad is the struct used throughout: an ordered (subject, predicate,
// object) triple plus an optional label (graph/context).
type Quad struct {
	Subject   Value `json:"subject"`
	Predicate Value `json:"predicate"`
	Object    Value `json:"object"`
	Label     Value `json:"label,omitempty"`
}

type rawQuad struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
	Label     string `json:"label,omitempty"`
}

func (q Quad) MarshalJSON() ([]byte, error) {
	rq := rawQuad{
		Subject:   q.Subject.String(),
		Predicate: q.Predicate.String(),
		Object:    q.Object.String(),
	}
	if q.Label != nil {
		rq.Label = q.Label.String()
	}
	return json.Marshal(rq)
}
func (q *Quad) UnmarshalJSON(data []byte) error {
	var rq rawQuad
	if err := json.Unmarshal(data, &rq); err != nil {
		return err
	}
	*q = Make(rq.Subject, rq.Predicate, rq.Object, rq.Label)
	return nil
}

// Direction specifies a quad position.
type Direction byte

// List of the valid directions of a quad.
const (
	Any Direction = iota
	Subject
	Predicate
	Object
	Label
)

var Directions = []Direction{Subject, Predicate, Object, Label}

func (d Direction) Prefix() byte {
	switch d {
	case Any:
		return 'a'
	case Subject:
		return 's'
	case Predicate:
		return 'p'
	case Label:
		return 'c'
	case Object:
		return 'o'
	default:
		return '\x00'
	}
}

func (d Direction) String() string {
	switch d {
	case Any:
		return "any"
	case Subject:
		return "subject"
	case Predicate:
		return "predicate"
	case Label:
		return "label"
	case Object:
		return "object"
	default:
		return fmt.Sprint("illegal direction:", byte(d))
	}
}

// Get is the per-field accessor for quads.
func (q Quad) Get(d Direction) Value {
	switch d {
	case Subject:
		return q.Subject
	case Predicate:
		return q.Predicate
	case Label:
		return q.Label
	case Object:
		return q.Object
	default:
		panic(d.String())
	}
}

// GetString is the per-field accessor for quads that returns strings instead of values.
func (q Quad) GetString(d Direction) string {
	return StringOf(q.Get(d))
}

// String pretty-prints a quad.
func (q Quad) String() string {
	return fmt.Sprintf("%v -- %v -> %v", q.Subject, q.Predicate, q.Object)
}

// IsValid reports whether all required positions of the quad are set.
func (q Quad) IsValid() bool {
	return q.Subject != nil && q.Predicate != nil && q.Object != nil &&
		q.Subject.String() != "" && q.Predicate.String() != "" && q.Object.String() != ""
}

// NQuad prints a quad in N-Quad format.
func (q Quad) NQuad() string {
	if q.Label == nil || q.Label.String() == "" {
		return fmt.Sprintf("%s %s %s .", q.Subject, q.Predicate, q.Object)
	}
	return fmt.Sprintf("%s %s %s %s .", q.Subject, q.Predicate, q.Object, q.Label)
}

type Unmarshaler interface {
	Unmarshal() (Quad, error)
}

type ByQuadString []Quad

func (o ByQuadString) Len() int { return len(o) }
func (o ByQuadString) Less(i, j int) bool {
	switch { // TODO: optimize
	case StringOf(o[i].Subject) < StringOf(o[j].Subject),

		StringOf(o[i].Subject) == StringOf(o[j].Subject) &&
			StringOf(o[i].Predicate) < StringOf(o[j].Predicate),

		StringOf(o[i].Subject) == StringOf(o[j].Subject) &&
			StringOf(o[i].Predicate) == StringOf(o[j].Predicate) &&
			StringOf(o[i].Object) < StringOf(o[j].Object),

		StringOf(o[i].Subject) == StringOf(o[j].Subject) &&
			StringOf(o[i].Predicate) == StringOf(o[j].Predicate) &&
			StringOf(o[i].Object) == StringOf(o[j].Object) &&
			StringOf(o[i].Label) < StringOf(o[j].Label):

		return true

	default:
		return false
	}
}
func (o ByQuadString) Swap(i, j int) { o[i], o[j] = o[j], o[i] }
