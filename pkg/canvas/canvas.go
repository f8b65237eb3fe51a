// Package canvas stores named canvases of drawings.
//
// A drawing is kept as the raw JSON element the client sent; this package
// never interprets shapes. Backends:
//   - memory: in-process, for tests and throwaway servers
//   - file: one JSON file per canvas, the CLI default
//   - redis: one JSON value per canvas plus an index set
//   - mongo: one document per canvas
//
// Pick one with [Open]:
//
//	store, err := canvas.Open(ctx, cfg.Store)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	c, err := store.Create(ctx, "Sunset", drawings)
package canvas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	sketcherrors "github.com/matzehuels/sketchcanvas/pkg/errors"
)

// Sentinel errors for canvas operations.
var (
	// ErrNotFound is returned when a canvas does not exist.
	ErrNotFound = errors.New("canvas not found")

	// ErrInvalidDrawings is returned when drawings are not a JSON array.
	ErrInvalidDrawings = errors.New("drawings must be a JSON array")
)

// Canvas is a named, ordered list of drawings.
type Canvas struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Drawings  []json.RawMessage `json:"drawings"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Summary is a canvas without its drawings, as returned by List.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary returns c without its drawings.
func (c *Canvas) Summary() Summary {
	return Summary{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

// DrawingsJSON returns the drawings as one JSON array.
func (c *Canvas) DrawingsJSON() string {
	return JoinDrawings(c.Drawings)
}

// Store is the interface for canvas storage backends.
type Store interface {
	// List returns every canvas, most recently updated first. Ties are
	// broken by ID.
	List(ctx context.Context) ([]Summary, error)

	// Get returns the canvas with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Canvas, error)

	// Create stores a new canvas and returns it with its assigned ID.
	Create(ctx context.Context, name string, drawings []json.RawMessage) (*Canvas, error)

	// Replace overwrites a canvas' drawings. A non-empty name renames it.
	// Returns ErrNotFound if the canvas does not exist.
	Replace(ctx context.Context, id, name string, drawings []json.RawMessage) error

	// Delete removes a canvas. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// SplitDrawings parses a JSON array and returns its elements unchanged.
func SplitDrawings(text string) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, ErrInvalidDrawings
	}
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDrawings, err)
	}
	if elems == nil {
		elems = []json.RawMessage{}
	}
	return elems, nil
}

// JoinDrawings encodes drawings as a JSON array. Nil encodes as "[]".
func JoinDrawings(drawings []json.RawMessage) string {
	var b bytes.Buffer
	b.WriteByte('[')
	for i, d := range drawings {
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(d)
	}
	b.WriteByte(']')
	return b.String()
}

// newCanvas validates name and assigns an ID and timestamps.
func newCanvas(name string, drawings []json.RawMessage) (*Canvas, error) {
	name = strings.TrimSpace(name)
	if err := sketcherrors.ValidateCanvasName(name); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Canvas{
		ID:        uuid.NewString(),
		Name:      name,
		Drawings:  cloneDrawings(drawings),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// apply updates c in place for Replace.
func (c *Canvas) apply(name string, drawings []json.RawMessage) error {
	if name = strings.TrimSpace(name); name != "" {
		if err := sketcherrors.ValidateCanvasName(name); err != nil {
			return err
		}
		c.Name = name
	}
	c.Drawings = cloneDrawings(drawings)
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// validID reports whether id is a canvas ID this package could have issued.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func cloneDrawings(drawings []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, len(drawings))
	for i, d := range drawings {
		out[i] = slices.Clone(d)
	}
	return out
}

func clone(c *Canvas) *Canvas {
	cp := *c
	cp.Drawings = cloneDrawings(c.Drawings)
	return &cp
}

func sortSummaries(list []Summary) {
	slices.SortFunc(list, func(a, b Summary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
