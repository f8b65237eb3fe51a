package shape

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidData is returned by [Parse] when the input is not a syntactically
// valid JSON array.
var ErrInvalidData = errors.New("invalid shape data")

// Element-level rejection reasons. They are reported through [Rejected] and
// never fail a [Parse] call.
var (
	ErrUnknownKind  = errors.New("unknown shape kind")
	ErrMissingField = errors.New("missing required field")
	ErrInvalidField = errors.New("invalid field value")
	ErrNotAnObject  = errors.New("element is not a shape object")
)

const minPolygonPoints = 3

// Rejected describes an array element that was skipped during [Parse].
type Rejected struct {
	Index  int             // Position in the input array
	Raw    json.RawMessage // The element as received
	Reason error           // Wraps one of the Err* rejection reasons
}

// element is the union of every field any kind may carry. Pointers
// distinguish an absent field from a zero value.
type element struct {
	Type        string   `json:"type"`
	X           *float64 `json:"x"`
	Y           *float64 `json:"y"`
	Radius      *float64 `json:"radius"`
	Width       *float64 `json:"width"`
	Height      *float64 `json:"height"`
	X1          *float64 `json:"x1"`
	Y1          *float64 `json:"y1"`
	X2          *float64 `json:"x2"`
	Y2          *float64 `json:"y2"`
	CX          *float64 `json:"cx"`
	CY          *float64 `json:"cy"`
	RX          *float64 `json:"rx"`
	RY          *float64 `json:"ry"`
	Points      []Point  `json:"points"`
	Color       string   `json:"color"`
	Stroke      string   `json:"stroke"`
	StrokeWidth *float64 `json:"strokeWidth"`
}

// Parse decodes a JSON array of shapes.
//
// It fails with [ErrInvalidData] only when text is not a valid JSON array.
// An empty array yields an empty, non-nil slice. Elements that cannot be
// decoded into a known kind are returned in the rejected list, in input
// order, and are absent from shapes.
func Parse(text string) (shapes []Shape, rejected []Rejected, err error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if raw == nil {
		return nil, nil, fmt.Errorf("%w: expected an array, got null", ErrInvalidData)
	}

	shapes = make([]Shape, 0, len(raw))
	for i, r := range raw {
		s, err := Decode(r)
		if err != nil {
			rejected = append(rejected, Rejected{Index: i, Raw: r, Reason: err})
			continue
		}
		shapes = append(shapes, s)
	}
	return shapes, rejected, nil
}

// Decode converts a single JSON object into its concrete shape type.
func Decode(data json.RawMessage) (Shape, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotAnObject
	}
	var e element
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidField, err)
	}

	kind := Kind(strings.ToLower(strings.TrimSpace(e.Type)))
	switch kind {
	case KindCircle:
		if err := require(e.X, "x", e.Y, "y", e.Radius, "radius"); err != nil {
			return nil, err
		}
		if err := nonNegative(*e.Radius, "radius"); err != nil {
			return nil, err
		}
		return Circle{X: *e.X, Y: *e.Y, Radius: *e.Radius, Color: e.Color}, nil

	case KindRectangle:
		if err := require(e.X, "x", e.Y, "y", e.Width, "width", e.Height, "height"); err != nil {
			return nil, err
		}
		if err := nonNegative(*e.Width, "width", *e.Height, "height"); err != nil {
			return nil, err
		}
		return Rectangle{X: *e.X, Y: *e.Y, Width: *e.Width, Height: *e.Height, Color: e.Color}, nil

	case KindLine:
		if err := require(e.X1, "x1", e.Y1, "y1", e.X2, "x2", e.Y2, "y2"); err != nil {
			return nil, err
		}
		return Line{X1: *e.X1, Y1: *e.Y1, X2: *e.X2, Y2: *e.Y2, Color: e.Color, StrokeWidth: deref(e.StrokeWidth)}, nil

	case KindPolygon:
		if len(e.Points) == 0 {
			return nil, fmt.Errorf("%w: points", ErrMissingField)
		}
		if len(e.Points) < minPolygonPoints {
			return nil, fmt.Errorf("%w: polygon needs at least %d points, got %d", ErrInvalidField, minPolygonPoints, len(e.Points))
		}
		return Polygon{Points: e.Points, Color: e.Color, Stroke: e.Stroke, StrokeWidth: deref(e.StrokeWidth)}, nil

	case KindEllipse:
		if err := require(e.CX, "cx", e.CY, "cy", e.RX, "rx", e.RY, "ry"); err != nil {
			return nil, err
		}
		if err := nonNegative(*e.RX, "rx", *e.RY, "ry"); err != nil {
			return nil, err
		}
		return Ellipse{CX: *e.CX, CY: *e.CY, RX: *e.RX, RY: *e.RY, Color: e.Color}, nil

	case KindArc:
		if err := require(e.X, "x", e.Y, "y", e.Radius, "radius"); err != nil {
			return nil, err
		}
		if err := nonNegative(*e.Radius, "radius"); err != nil {
			return nil, err
		}
		return Arc{X: *e.X, Y: *e.Y, Radius: *e.Radius, Color: e.Color}, nil
	}

	if kind == "" {
		return nil, fmt.Errorf("%w: type", ErrMissingField)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, e.Type)
}

// require takes alternating (*float64, name) pairs and reports the first nil.
func require(pairs ...any) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if v, _ := pairs[i].(*float64); v == nil {
			return fmt.Errorf("%w: %s", ErrMissingField, pairs[i+1])
		}
	}
	return nil
}

// nonNegative takes alternating (float64, name) pairs.
func nonNegative(pairs ...any) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if v, _ := pairs[i].(float64); v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidField, pairs[i+1])
		}
	}
	return nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
