package domain

import (
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// Entry is one persisted outline row.
type Entry struct {
	ID        string
	SheetID   string
	ParentID  string
	Position  int
	Open      bool
	Container bool
	Kind      string
	Name      string
	Points    int
	Quantity  int
	Weight    float64
	Reference string
	Notes     string
	Features  []Feature
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EntryInput holds the create-time values of an entry.
type EntryInput struct {
	ID        string
	SheetID   string
	ParentID  string
	Position  int
	Container bool
	Kind      string
	Name      string
	Points    int
	Quantity  int
	Weight    float64
	Reference string
	Notes     string
	Features  []Feature
}

// NewEntry validates and normalizes a new entry. Containers start open.
func NewEntry(in EntryInput, now time.Time) (Entry, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.SheetID = strings.TrimSpace(in.SheetID)
	in.ParentID = strings.TrimSpace(in.ParentID)
	in.Name = strings.TrimSpace(in.Name)
	in.Kind = strings.ToLower(strings.TrimSpace(in.Kind))
	in.Reference = strings.TrimSpace(in.Reference)

	if in.ID == "" || in.SheetID == "" {
		return Entry{}, ErrInvalidID
	}
	if in.ParentID == in.ID {
		return Entry{}, ErrInvalidID
	}
	if in.Name == "" {
		return Entry{}, ErrInvalidName
	}
	if in.Position < 0 {
		return Entry{}, ErrInvalidPosition
	}
	if in.Quantity < 0 {
		return Entry{}, ErrInvalidQuantity
	}
	if in.Weight < 0 {
		return Entry{}, ErrInvalidWeight
	}
	features, skipped := NormalizeFeatures(in.Features)
	if len(skipped) > 0 {
		return Entry{}, ErrUnknownFeature
	}

	return Entry{
		ID:        in.ID,
		SheetID:   in.SheetID,
		ParentID:  in.ParentID,
		Position:  in.Position,
		Open:      in.Container,
		Container: in.Container,
		Kind:      in.Kind,
		Name:      in.Name,
		Points:    in.Points,
		Quantity:  in.Quantity,
		Weight:    in.Weight,
		Reference: in.Reference,
		Notes:     in.Notes,
		Features:  features,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// Touch stamps the entry as updated.
func (e *Entry) Touch(now time.Time) {
	e.UpdatedAt = now.UTC()
}

// Field returns the typed value stored under key.
func (e *Entry) Field(key string) any {
	switch key {
	case FieldName:
		return e.Name
	case FieldKind:
		return e.Kind
	case FieldPoints:
		return e.Points
	case FieldQuantity:
		return e.Quantity
	case FieldWeight:
		return e.Weight
	case FieldReference:
		return e.Reference
	case FieldNotes:
		return e.Notes
	case FieldFeatures:
		return e.Features
	}
	return nil
}

// FieldText returns the display form of key.
func (e *Entry) FieldText(key string) string {
	switch key {
	case FieldPoints:
		return strconv.Itoa(e.Points)
	case FieldQuantity:
		return strconv.Itoa(e.Quantity)
	case FieldWeight:
		return strconv.FormatFloat(e.Weight, 'f', -1, 64)
	case FieldFeatures:
		parts := make([]string, 0, len(e.Features))
		for _, f := range e.Features {
			parts = append(parts, f.String())
		}
		return strings.Join(parts, ", ")
	}
	v, _ := e.Field(key).(string)
	return v
}

// SetField stores value under key. Values of the wrong type are parsed from
// their text form when the key is numeric and dropped when that fails.
func (e *Entry) SetField(key string, value any) {
	if text, ok := value.(string); ok {
		_ = e.SetFieldText(key, text)
		return
	}
	switch key {
	case FieldPoints:
		if v, ok := value.(int); ok {
			e.Points = v
		}
	case FieldQuantity:
		if v, ok := value.(int); ok && v >= 0 {
			e.Quantity = v
		}
	case FieldWeight:
		switch v := value.(type) {
		case float64:
			if v >= 0 {
				e.Weight = v
			}
		case int:
			if v >= 0 {
				e.Weight = float64(v)
			}
		}
	case FieldFeatures:
		if v, ok := value.([]Feature); ok {
			if kept, skipped := NormalizeFeatures(v); len(skipped) == 0 {
				e.Features = kept
			}
		}
	}
}

// SetFieldText parses text into key, leaving the entry unchanged on error.
func (e *Entry) SetFieldText(key, text string) error {
	trimmed := strings.TrimSpace(text)
	switch key {
	case FieldName:
		if trimmed == "" {
			return ErrInvalidName
		}
		e.Name = trimmed
	case FieldKind:
		e.Kind = strings.ToLower(trimmed)
	case FieldPoints:
		v, err := strconv.Atoi(trimmed)
		if err != nil {
			return ErrInvalidPoints
		}
		e.Points = v
	case FieldQuantity:
		v, err := strconv.Atoi(trimmed)
		if err != nil || v < 0 {
			return ErrInvalidQuantity
		}
		e.Quantity = v
	case FieldWeight:
		v, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || v < 0 {
			return ErrInvalidWeight
		}
		e.Weight = v
	case FieldReference:
		e.Reference = trimmed
	case FieldNotes:
		e.Notes = text
	default:
		return ErrUnknownField
	}
	return nil
}

// Number returns the numeric value of key, if it has one.
func (e *Entry) Number(key string) (float64, bool) {
	switch key {
	case FieldPoints:
		return float64(e.Points), true
	case FieldQuantity:
		return float64(e.Quantity), true
	case FieldWeight:
		return e.Weight, true
	}
	return 0, false
}

// entryFields is the captured form of an entry's own values. Placement is
// owned by the outline and is not part of it.
type entryFields struct {
	Kind      string    `json:"kind,omitempty"`
	Name      string    `json:"name"`
	Points    int       `json:"points"`
	Quantity  int       `json:"quantity"`
	Weight    float64   `json:"weight"`
	Reference string    `json:"reference,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Features  []Feature `json:"features,omitempty"`
}

// MarshalRow captures the entry's values for undo.
func (e *Entry) MarshalRow() ([]byte, error) {
	return json.Marshal(entryFields{
		Kind:      e.Kind,
		Name:      e.Name,
		Points:    e.Points,
		Quantity:  e.Quantity,
		Weight:    e.Weight,
		Reference: e.Reference,
		Notes:     e.Notes,
		Features:  e.Features,
	})
}

// UnmarshalRow reloads values captured by MarshalRow. Nothing is applied
// unless the whole capture decodes.
func (e *Entry) UnmarshalRow(data []byte) error {
	var f entryFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	e.Kind = f.Kind
	e.Name = f.Name
	e.Points = f.Points
	e.Quantity = f.Quantity
	e.Weight = f.Weight
	e.Reference = f.Reference
	e.Notes = f.Notes
	e.Features = f.Features
	return nil
}
