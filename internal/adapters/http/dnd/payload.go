// Package dnd models the drag payload the browser hands to a drop target.
package dnd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
)

// TypeProjectID is the payload type a card uses to carry its project id.
const TypeProjectID = "text/plain"

// EffectMove is the only drop effect cards allow.
const EffectMove = "move"

// ErrUnsupportedPayload is returned when a drop carries no recognized type.
var ErrUnsupportedPayload = errors.New("unsupported drag payload")

// Payload mirrors the subset of DataTransfer the board uses.
type Payload struct {
	Types         []string          `json:"types"`
	Data          map[string]string `json:"data"`
	EffectAllowed string            `json:"effectAllowed,omitempty"`
}

// SetData stores value under typ, registering typ once.
func (p *Payload) SetData(typ, value string) {
	if p.Data == nil {
		p.Data = make(map[string]string)
	}
	if !slices.Contains(p.Types, typ) {
		p.Types = append(p.Types, typ)
	}
	p.Data[typ] = value
}

// GetData returns the value stored under typ, or "" when absent.
func (p *Payload) GetData(typ string) string {
	if p == nil || p.Data == nil {
		return ""
	}
	return p.Data[typ]
}

// HasType reports whether typ was registered.
func (p *Payload) HasType(typ string) bool {
	return p != nil && slices.Contains(p.Types, typ)
}

// PrimaryType returns the first registered type, or "" when there is none.
// Drop targets decide acceptance on this type alone.
func (p *Payload) PrimaryType() string {
	if p == nil || len(p.Types) == 0 {
		return ""
	}
	return p.Types[0]
}

// ProjectID extracts the dragged project id.
// PRE: none
// POST: Returns ErrUnsupportedPayload when the payload has no text/plain entry
func (p *Payload) ProjectID() (string, error) {
	if !p.HasType(TypeProjectID) {
		return "", ErrUnsupportedPayload
	}
	return p.GetData(TypeProjectID), nil
}

// Decode reads a JSON payload from r.
func Decode(r io.Reader) (*Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedPayload, err)
	}
	return &p, nil
}
