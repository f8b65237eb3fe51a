// Package cli implements the sketchcanvas command-line interface.
//
// # Commands
//
//   - serve: Run the HTTP API used by the drawing client
//   - generate: Turn a prompt into shapes from the terminal
//   - canvas: List, show and delete saved canvases
//   - completion: Shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging through
// charmbracelet/log. Retries against the generative endpoint are logged at
// warn level.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/sketchcanvas/pkg/buildinfo"
	"github.com/matzehuels/sketchcanvas/pkg/canvas"
	"github.com/matzehuels/sketchcanvas/pkg/config"
	"github.com/matzehuels/sketchcanvas/pkg/gemini"
	"github.com/matzehuels/sketchcanvas/pkg/generate"
	"github.com/matzehuels/sketchcanvas/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "sketchcanvas"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	hooks      *pipelineHooks
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	logger := newLogger(w, level)
	return &CLI{
		Logger: logger,
		hooks:  &pipelineHooks{logger: logger},
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Sketchcanvas draws shapes from natural-language prompts",
		Long:         `Sketchcanvas turns prompts into vector shapes using a generative model, stores named canvases, and serves the API behind the drawing client.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			observability.SetTransportHooks(c.hooks)
			observability.SetGenerationHooks(c.hooks)
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/sketchcanvas/config.toml)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.canvasCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Component Factories
// =============================================================================

func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	c.Logger.Debug("config loaded", "store", cfg.Store.Backend, "endpoint", cfg.Gemini.Endpoint)
	return cfg, nil
}

func (c *CLI) newGenerator(cfg config.Config) (*generate.Generator, error) {
	client, err := gemini.NewClient(cfg.Gemini.Client(), c.Logger)
	if err != nil {
		return nil, err
	}
	return generate.NewGenerator(client, c.Logger), nil
}

func (c *CLI) openStore(ctx context.Context, cfg config.Config) (canvas.Store, error) {
	store, err := canvas.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if fs, ok := store.(*canvas.FileStore); ok {
		c.Logger.Debug("using file store", "dir", fs.Dir())
	}
	return store, nil
}
