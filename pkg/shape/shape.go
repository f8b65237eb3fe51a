package shape

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the tag that selects a shape variant.
type Kind string

// Supported shape kinds.
const (
	KindCircle    Kind = "circle"
	KindRectangle Kind = "rectangle"
	KindLine      Kind = "line"
	KindPolygon   Kind = "polygon"
	KindEllipse   Kind = "ellipse"
	KindArc       Kind = "arc"
)

// Kinds lists every supported kind in the order they are presented to the model.
var Kinds = []Kind{KindCircle, KindRectangle, KindLine, KindPolygon, KindEllipse, KindArc}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Shape is one drawable primitive. The concrete types are [Circle],
// [Rectangle], [Line], [Polygon], [Ellipse] and [Arc].
type Shape interface {
	Kind() Kind
}

// Point is a polygon vertex. The upper-case JSON names match what the canvas
// client renders; decoding accepts either case.
type Point struct {
	X float64 `json:"X"`
	Y float64 `json:"Y"`
}

// Circle is centred at (X, Y).
type Circle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Color  string  `json:"color,omitempty"`
}

// Rectangle is anchored at its top-left corner (X, Y).
type Rectangle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Color  string  `json:"color,omitempty"`
}

// Line runs from (X1, Y1) to (X2, Y2).
type Line struct {
	X1          float64 `json:"x1"`
	Y1          float64 `json:"y1"`
	X2          float64 `json:"x2"`
	Y2          float64 `json:"y2"`
	Color       string  `json:"color,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
}

// Polygon is a closed path through Points in order.
type Polygon struct {
	Points      []Point `json:"points"`
	Color       string  `json:"color,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
}

// Ellipse is centred at (CX, CY) with radii RX and RY.
type Ellipse struct {
	CX    float64 `json:"cx"`
	CY    float64 `json:"cy"`
	RX    float64 `json:"rx"`
	RY    float64 `json:"ry"`
	Color string  `json:"color,omitempty"`
}

// Arc is the upper half circle centred at (X, Y).
type Arc struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Color  string  `json:"color,omitempty"`
}

func (Circle) Kind() Kind    { return KindCircle }
func (Rectangle) Kind() Kind { return KindRectangle }
func (Line) Kind() Kind      { return KindLine }
func (Polygon) Kind() Kind   { return KindPolygon }
func (Ellipse) Kind() Kind   { return KindEllipse }
func (Arc) Kind() Kind       { return KindArc }

// MarshalJSON emits the circle with its "type" tag.
func (c Circle) MarshalJSON() ([]byte, error) {
	type fields Circle
	return json.Marshal(struct {
		Type Kind `json:"type"`
		fields
	}{KindCircle, fields(c)})
}

// MarshalJSON emits the rectangle with its "type" tag.
func (r Rectangle) MarshalJSON() ([]byte, error) {
	type fields Rectangle
	return json.Marshal(struct {
		Type Kind `json:"type"`
		fields
	}{KindRectangle, fields(r)})
}

// MarshalJSON emits the line with its "type" tag.
func (l Line) MarshalJSON() ([]byte, error) {
	type fields Line
	return json.Marshal(struct {
		Type Kind `json:"type"`
		fields
	}{KindLine, fields(l)})
}

// MarshalJSON emits the polygon with its "type" tag.
func (p Polygon) MarshalJSON() ([]byte, error) {
	type fields Polygon
	if p.Points == nil {
		p.Points = []Point{}
	}
	return json.Marshal(struct {
		Type Kind `json:"type"`
		fields
	}{KindPolygon, fields(p)})
}

// MarshalJSON emits the ellipse with its "type" tag.
func (e Ellipse) MarshalJSON() ([]byte, error) {
	type fields Ellipse
	return json.Marshal(struct {
		Type Kind `json:"type"`
		fields
	}{KindEllipse, fields(e)})
}

// MarshalJSON emits the arc with its "type" tag.
func (a Arc) MarshalJSON() ([]byte, error) {
	type fields Arc
	return json.Marshal(struct {
		Type Kind `json:"type"`
		fields
	}{KindArc, fields(a)})
}

// Marshal encodes shapes as a JSON array. A nil or empty slice encodes as "[]".
func Marshal(shapes []Shape) ([]byte, error) {
	if shapes == nil {
		shapes = []Shape{}
	}
	return json.Marshal(shapes)
}

// Equal reports whether a and b are the same kind with identical fields.
func Equal(a, b Shape) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(ab) == string(bb)
}

// Describe renders one "name: value" line per shape, in the order given.
// It returns "No shapes to display." for an empty list.
func Describe(shapes []Shape) string {
	if len(shapes) == 0 {
		return "No shapes to display."
	}
	var b strings.Builder
	for i, s := range shapes {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(describe(s))
	}
	return b.String()
}

func describe(s Shape) string {
	parts := []string{"type: " + string(s.Kind())}
	add := func(name string, v float64) {
		parts = append(parts, fmt.Sprintf("%s: %g", name, v))
	}
	addStr := func(name, v string) {
		if v != "" {
			parts = append(parts, name+": "+v)
		}
	}

	switch v := s.(type) {
	case Circle:
		add("x", v.X)
		add("y", v.Y)
		add("radius", v.Radius)
		addStr("color", v.Color)
	case Rectangle:
		add("x", v.X)
		add("y", v.Y)
		add("width", v.Width)
		add("height", v.Height)
		addStr("color", v.Color)
	case Line:
		add("x1", v.X1)
		add("y1", v.Y1)
		add("x2", v.X2)
		add("y2", v.Y2)
		addStr("color", v.Color)
		if v.StrokeWidth > 0 {
			add("strokeWidth", v.StrokeWidth)
		}
	case Polygon:
		pts, _ := json.Marshal(v.Points)
		parts = append(parts, "points: "+string(pts))
		addStr("color", v.Color)
		addStr("stroke", v.Stroke)
		if v.StrokeWidth > 0 {
			add("strokeWidth", v.StrokeWidth)
		}
	case Ellipse:
		add("cx", v.CX)
		add("cy", v.CY)
		add("rx", v.RX)
		add("ry", v.RY)
		addStr("color", v.Color)
	case Arc:
		add("x", v.X)
		add("y", v.Y)
		add("radius", v.Radius)
		addStr("color", v.Color)
	}
	return strings.Join(parts, ", ")
}
