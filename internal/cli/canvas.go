package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sketchcanvas/pkg/canvas"
	"github.com/matzehuels/sketchcanvas/pkg/shape"
)

func (c *CLI) canvasCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "canvas",
		Short: "Manage saved canvases",
	}
	cmd.AddCommand(c.canvasListCommand())
	cmd.AddCommand(c.canvasShowCommand())
	cmd.AddCommand(c.canvasDeleteCommand())
	return cmd
}

// withStore loads config, opens the store and runs fn with it.
func (c *CLI) withStore(ctx context.Context, fn func(canvas.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	store, err := c.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func (c *CLI) canvasListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved canvases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(store canvas.Store) error {
				list, err := store.List(ctx)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					printInfo("No saved canvases")
					return nil
				}
				printCanvasTable(list, time.Now())
				return nil
			})
		},
	}
}

func (c *CLI) canvasShowCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the shapes of a canvas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(store canvas.Store) error {
				cv, err := store.Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("canvas %s: %w", args[0], err)
				}
				if asJSON {
					fmt.Println(cv.DrawingsJSON())
					return nil
				}

				printKeyValue("Name", cv.Name)
				printKeyValue("ID", cv.ID)
				printKeyValue("Updated", cv.UpdatedAt.Local().Format(time.DateTime))
				printNewline()

				shapes, rejected, err := shape.Parse(cv.DrawingsJSON())
				if err != nil {
					return err
				}
				fmt.Println(shape.Describe(shapes))
				if len(rejected) > 0 {
					printDetail("%d drawings are not recognized shapes", len(rejected))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the drawings as a JSON array")
	return cmd
}

func (c *CLI) canvasDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a canvas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(store canvas.Store) error {
				if err := store.Delete(ctx, args[0]); err != nil {
					return fmt.Errorf("canvas %s: %w", args[0], err)
				}
				printSuccess("Deleted canvas %s", args[0])
				return nil
			})
		},
	}
}
