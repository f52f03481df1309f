package main

import (
	"github.com/Carmen-Shannon/oxy-keyframe/engine"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/renderer"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/store"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/window"
	"github.com/Carmen-Shannon/oxy-keyframe/internal/cli"
	"github.com/spf13/cobra"
)

func newViewCmd(app *cli.App) *cobra.Command {
	var (
		watch    bool
		profile  bool
		software bool
		uncapped bool
	)

	cmd := &cobra.Command{
		Use:   "view <model>",
		Short: "Open the interactive keyframe editor",
		Long: `Keys:
  Tab          attach the next bone
  W / E / R    translate / rotate / scale
  Q            toggle local / world space
  arrows, PgUp/PgDn   nudge along x, y, z
  Ctrl/Super   hold to snap
  Enter        write the bone into the current keyframe
  Esc          detach without writing
  Space        play / stop
  1-9          select clip
  S            snapshot the clip to the store
  + / -        gizmo size`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config
			ld := app.NewLoader()

			// Fail on a bad model before a window opens.
			if _, err := ld.Load(args[0]); err != nil {
				return err
			}

			var st store.Store
			if app.StorePath != "" {
				var err error
				st, err = app.OpenStore(cmd.Context())
				if err != nil {
					return err
				}
				defer st.Close()
			}

			win, err := window.NewWindow(
				window.WithTitle(cfg.Window.Title),
				window.WithSize(cfg.Window.Width, cfg.Window.Height),
				window.WithSizeLimits(320, 240, 0, 0),
			)
			if err != nil {
				return err
			}

			presentMode := renderer.PresentModeVSync
			if uncapped {
				presentMode = renderer.PresentModeUncapped
			}
			r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, win,
				renderer.WithBackground(cfg.Window.Background),
				renderer.WithPresentMode(presentMode),
				renderer.WithForceSoftwareRenderer(software),
			)
			if err != nil {
				_ = win.Close()
				return err
			}

			eng := engine.NewEngine(
				engine.WithConfig(cfg),
				engine.WithLogger(app.Logger),
				engine.WithWindow(win),
				engine.WithRenderer(r),
				engine.WithLoader(ld),
				engine.WithStore(st),
				engine.WithProfiling(profile),
			)
			eng.Start()
			if err := eng.Open(args[0]); err != nil {
				eng.Quit()
				return err
			}
			if watch {
				if err := eng.Watch(cmd.Context(), args[0]); err != nil {
					eng.Quit()
					return err
				}
			}

			go func() {
				<-cmd.Context().Done()
				win.RequestClose()
			}()
			return eng.Run()
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Reload the model when the file changes")
	cmd.Flags().BoolVar(&profile, "profile", false, "Log frame rate, memory and edit counters every second")
	cmd.Flags().BoolVar(&software, "software", false, "Force a software rendering adapter")
	cmd.Flags().BoolVar(&uncapped, "uncapped", false, "Present without vsync")
	return cmd
}
