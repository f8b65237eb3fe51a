// Package prompt builds the instruction text sent to the generative model.
package prompt

import (
	"strings"

	"github.com/matzehuels/sketchcanvas/pkg/shape"
)

// systemPolicy is the fixed block that opens every prompt. The allowed kinds
// are appended from [shape.Kinds] so the list cannot drift from the decoder.
const systemPolicy = `You are a graphic generation assistant for a canvas drawing tool.
You must always return a single valid JSON array of shapes based on the user's prompt and the existing shapes.
For each shape use only the properties of its type. Do not add any text or explanation. JSON only.

Drawing rules:
1. Preserve all existing shapes.
2. Only add the new shapes needed to satisfy the user's latest instruction.
3. Use spatial common sense: avoid overlaps, scale objects naturally and arrange them clearly on the canvas.
4. Use relative positioning: a book held in a hand sits next to the hand, the sun sits in a top corner, a baby is smaller than an adult.
5. Use named colors such as 'yellow', 'blue' or 'red', never custom color codes.
6. Never repeat shapes that already exist.

Shape properties:
- circle: x, y, radius, color
- rectangle: x, y, width, height, color
- line: x1, y1, x2, y2, color, strokeWidth
- polygon: points (list of {"X": number, "Y": number}), color, stroke, strokeWidth
- ellipse: cx, cy, rx, ry, color
- arc: x, y, radius, color

Semantic guidance:
- A flower: a center circle surrounded by several smaller petal circles.
- A baby: a small circle for the head, rectangles for body and limbs, soft colors like 'pink' or 'peachpuff'.
- A sun: a yellow circle, usually top-left, with optional line rays.

Do not generate overlapping shapes unless strictly required.
Never return multiple JSON arrays. Only return ONE valid array.`

const closingDirective = "Now return a single valid JSON array with all existing shapes (if any), plus new ones to satisfy the user's prompt. Reply with the JSON array only, with no surrounding prose."

// Compose returns the full instruction for one generation request.
//
// The text is the system policy, the allowed kinds, the existing shapes
// verbatim when existingJSON is not blank, the user's instruction and a
// closing directive asking for exactly one JSON array. Compose has no side
// effects.
func Compose(existingJSON, userPrompt string) string {
	var b strings.Builder
	b.WriteString(systemPolicy)
	b.WriteString("\n\nAllowed shape types: ")
	for i, k := range shape.Kinds {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(k))
	}
	b.WriteString(".\n\n")

	if strings.TrimSpace(existingJSON) == "" {
		b.WriteString("Draw: ")
		b.WriteString(userPrompt)
	} else {
		b.WriteString("Existing shapes: ")
		b.WriteString(existingJSON)
		b.WriteString("\nNow add shapes to satisfy this new instruction: ")
		b.WriteString(userPrompt)
	}

	b.WriteString("\n")
	b.WriteString(closingDirective)
	return b.String()
}
