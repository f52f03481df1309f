package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-keyframe/common"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/config"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/loader"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/store"
	"github.com/spf13/cobra"
)

// ErrNoStore is returned by commands that need the clip store when no path is configured.
var ErrNoStore = errors.New("no store path: pass --store or set OXYKEY_STORE_PATH")

// App carries the flags and configuration shared by every command.
type App struct {
	ConfigPath string
	StorePath  string
	Format     string

	Config config.Config
	Logger *slog.Logger
}

// CommandFactory builds a subcommand bound to the shared App.
type CommandFactory func(app *App) *cobra.Command

// NewRootCmd builds the oxykey command tree.
//
// Parameters:
//   - extra: additional subcommands, e.g. the windowed viewer
//
// Returns:
//   - *cobra.Command: the root command
func NewRootCmd(extra ...CommandFactory) *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:           "oxykey",
		Short:         "Inspect and edit skeletal animation keyframes",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Show bones and clips of a model
  oxykey inspect fox.glb

  # Write a position keyframe and snapshot the clip
  oxykey patch fox.glb --clip Walk --bone Hip --channel position --frame 3 --value 0,1,0 --store clips.db

  # Edit interactively
  oxykey view fox.glb --watch
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(app.ConfigPath)
		if err != nil {
			return writeErr(cmd, err)
		}
		app.Config = cfg
		app.StorePath = common.Coalesce(app.StorePath, cfg.Store.Path)
		app.Logger = cfg.Log.Logger(cmd.ErrOrStderr())
		switch app.Format {
		case FormatText, FormatJSON, FormatYAML:
		default:
			return writeErr(cmd, fmt.Errorf("%w: %q", ErrUnknownFormat, app.Format))
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", os.Getenv(config.EnvPrefix+"CONFIG"), "Path to a TOML config file")
	cmd.PersistentFlags().StringVar(&app.StorePath, "store", "", "Path to the clip snapshot database (overrides store.path)")
	cmd.PersistentFlags().StringVar(&app.Format, "format", FormatText, "Output format (text|json|yaml)")

	cmd.AddCommand(newInspectCmd(app))
	cmd.AddCommand(newPatchCmd(app))
	cmd.AddCommand(newClipsCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	for _, factory := range extra {
		cmd.AddCommand(factory(app))
	}

	return cmd
}

// LoadAsset reads a model file with the glTF loader.
//
// Parameters:
//   - path: the .gltf or .glb file
//
// Returns:
//   - model.Asset: the loaded asset
//   - error: error if the format is unsupported or the file is malformed
func (app *App) LoadAsset(path string) (model.Asset, error) {
	return app.NewLoader().Load(path)
}

// NewLoader creates a loader logging through the app's logger.
func (app *App) NewLoader() loader.Loader {
	return loader.NewLoader(loader.BackendTypeGLTF, loader.WithLogger(app.Logger))
}

// OpenStore opens the configured clip store.
//
// Parameters:
//   - ctx: bounds the open and migration
//
// Returns:
//   - store.Store: the opened store; the caller closes it
//   - error: ErrNoStore if no path is configured, or the open error
func (app *App) OpenStore(ctx context.Context) (store.Store, error) {
	if app.StorePath == "" {
		return nil, ErrNoStore
	}
	return store.Open(ctx, app.StorePath, store.WithLogger(app.Logger))
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
