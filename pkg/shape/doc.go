// Package shape defines the drawable primitives exchanged with the canvas
// client and produced by the generative model.
//
// # Kinds
//
// A [Shape] is a tagged variant. The JSON form is a flat object whose "type"
// field selects the kind and whose remaining fields are the geometry for that
// kind only:
//
//	{"type":"circle","x":50,"y":50,"radius":20,"color":"yellow"}
//	{"type":"rectangle","x":10,"y":10,"width":30,"height":15,"color":"red"}
//	{"type":"line","x1":0,"y1":0,"x2":100,"y2":100,"color":"black","strokeWidth":2}
//	{"type":"polygon","points":[{"X":0,"Y":0},{"X":10,"Y":0},{"X":5,"Y":8}],"color":"green"}
//	{"type":"ellipse","cx":40,"cy":40,"rx":20,"ry":10,"color":"blue"}
//	{"type":"arc","x":60,"y":60,"radius":15,"color":"orange"}
//
// Decoding an element copies only the fields of its kind into the concrete
// type, so a circle that also carries "width" decodes to a [Circle] with no
// trace of the width.
//
// # Parsing
//
// [Parse] decodes a JSON array. Syntax errors in the array fail the whole
// call with [ErrInvalidData]. Elements that are well-formed JSON but do not
// describe a known kind with all of its required fields are skipped and
// reported as [Rejected] entries, so one bad element never discards the rest
// of a drawing.
package shape
