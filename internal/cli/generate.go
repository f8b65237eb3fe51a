package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sketchcanvas/pkg/canvas"
	sketcherrors "github.com/matzehuels/sketchcanvas/pkg/errors"
	"github.com/matzehuels/sketchcanvas/pkg/generate"
	"github.com/matzehuels/sketchcanvas/pkg/shape"
)

type generateOptions struct {
	prompt   string
	existing string
	canvasID string
	pick     bool
	save     string
	asJSON   bool
}

// errNoSelection is returned when the picker is closed without a choice.
var errNoSelection = errors.New("no canvas selected")

func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate shapes from a prompt",
		Long: `Generate shapes from a natural-language prompt.

Existing shapes can be supplied from a JSON file, a saved canvas, or picked
interactively; the model is asked to keep them and add to them. The result
starts with the existing shapes followed by the new ones.`,
		Example: `  sketchcanvas generate -p "draw a sun"
  sketchcanvas generate -p "add a tree" --existing scene.json --json
  sketchcanvas generate -p "add clouds" --pick --save "Sky"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "what to draw (required)")
	cmd.Flags().StringVar(&opts.existing, "existing", "", "JSON file with existing shapes (- for stdin)")
	cmd.Flags().StringVar(&opts.canvasID, "canvas", "", "use the shapes of a saved canvas")
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "choose a saved canvas interactively")
	cmd.Flags().StringVar(&opts.save, "save", "", "save the result as a new canvas with this name")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as a JSON array")
	_ = cmd.MarkFlagRequired("prompt")
	cmd.MarkFlagsMutuallyExclusive("existing", "canvas", "pick")

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, opts generateOptions) error {
	if err := sketcherrors.ValidatePrompt(opts.prompt); err != nil {
		return err
	}
	if opts.save != "" {
		if err := sketcherrors.ValidateCanvasName(opts.save); err != nil {
			return err
		}
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	gen, err := c.newGenerator(cfg)
	if err != nil {
		return err
	}

	var store canvas.Store
	if opts.canvasID != "" || opts.pick || opts.save != "" {
		store, err = c.openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	existing, err := c.existingShapes(ctx, opts, store)
	if err != nil {
		return err
	}

	var spinner *Spinner
	if !opts.asJSON {
		spinner = newSpinnerWithContext(ctx, "Generating shapes...")
		c.hooks.attach(spinner)
		defer c.hooks.attach(nil)
		spinner.Start()
	}

	prog := newProgress(c.Logger)
	res, err := gen.Generate(ctx, generate.Request{Prompt: opts.prompt, ExistingShapes: existing})
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fallback := c.hooks.LastState() == string(generate.StateFallbackEmpty)
	if opts.asJSON {
		out, err := shape.Marshal(res.Shapes)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		if fallback {
			printWarning("Nothing was drawn: the endpoint or the model reply was unusable")
		} else {
			prog.done(fmt.Sprintf("Generated %d new shapes", len(res.Shapes)-len(existing)))
		}
		if len(res.Shapes) > 0 {
			printShapeTable(res.Shapes, len(existing))
		}
	}

	if opts.save == "" {
		return nil
	}
	return c.saveShapes(ctx, store, opts.save, res.Shapes, opts.asJSON)
}

// existingShapes loads the shapes the model should keep, if any were given.
func (c *CLI) existingShapes(ctx context.Context, opts generateOptions, store canvas.Store) ([]shape.Shape, error) {
	var text string
	switch {
	case opts.existing != "":
		data, err := readInput(opts.existing)
		if err != nil {
			return nil, err
		}
		text = string(data)
	case opts.canvasID != "":
		cv, err := store.Get(ctx, opts.canvasID)
		if err != nil {
			return nil, fmt.Errorf("canvas %s: %w", opts.canvasID, err)
		}
		text = cv.DrawingsJSON()
	case opts.pick:
		list, err := store.List(ctx)
		if err != nil {
			return nil, err
		}
		sel, err := pickCanvas(list)
		if err != nil {
			return nil, err
		}
		if sel == nil {
			return nil, errNoSelection
		}
		cv, err := store.Get(ctx, sel.ID)
		if err != nil {
			return nil, err
		}
		if !opts.asJSON {
			printInfo("Using canvas %s", StyleHighlight.Render(cv.Name))
		}
		text = cv.DrawingsJSON()
	default:
		return nil, nil
	}

	shapes, rejected, err := shape.Parse(text)
	if err != nil {
		return nil, sketcherrors.Wrap(sketcherrors.ErrCodeInvalidDrawings, err, "existing shapes must be a JSON array")
	}
	if len(rejected) > 0 {
		c.Logger.Warn("ignoring unrecognized existing shapes", "count", len(rejected))
	}
	return shapes, nil
}

func (c *CLI) saveShapes(ctx context.Context, store canvas.Store, name string, shapes []shape.Shape, quiet bool) error {
	out, err := shape.Marshal(shapes)
	if err != nil {
		return err
	}
	drawings, err := canvas.SplitDrawings(string(out))
	if err != nil {
		return err
	}
	cv, err := store.Create(ctx, name, drawings)
	if err != nil {
		return err
	}
	if quiet {
		c.Logger.Info("saved canvas", "name", cv.Name, "id", cv.ID)
		return nil
	}
	printSuccess("Saved canvas %s", StyleHighlight.Render(cv.Name))
	printDetail("id %s", cv.ID)
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
