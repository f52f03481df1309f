package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-keyframe/engine/keyframe"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/store"
	"github.com/spf13/cobra"
)

// ErrBadValue is returned when --value does not parse as a comma-separated list of numbers.
var ErrBadValue = errors.New("bad --value")

type patchReport struct {
	Asset    string    `json:"asset" yaml:"asset"`
	Clip     string    `json:"clip" yaml:"clip"`
	Track    string    `json:"track" yaml:"track"`
	Frame    int       `json:"frame" yaml:"frame"`
	Before   []float32 `json:"before" yaml:"before"`
	After    []float32 `json:"after" yaml:"after"`
	Revision int64     `json:"revision,omitempty" yaml:"revision,omitempty"`
	Source   string    `json:"source" yaml:"source"`
	Warning  string    `json:"warning,omitempty" yaml:"warning,omitempty"`
}

func (r patchReport) renderText() string {
	lines := []string{
		headingStyle.Render(fmt.Sprintf("%s / %s", r.Asset, r.Clip)),
		field("track", r.Track),
		field("frame", r.Frame),
		field("before", formatValue(r.Before)),
		field("after", formatValue(r.After)),
		field("source", r.Source),
	}
	if r.Revision > 0 {
		lines = append(lines, field("revision", r.Revision))
	}
	if r.Warning != "" {
		lines = append(lines, warnStyle.Render("warning: "+r.Warning))
	}
	return strings.Join(lines, "\n")
}

func formatValue(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'g', 6, 32)
	}
	return strings.Join(parts, ", ")
}

// parseValue reads "1,2,3" into float32s.
func parseValue(s string) ([]float32, error) {
	fields := strings.Split(s, ",")
	out := make([]float32, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrBadValue, s, err)
		}
		out = append(out, float32(v))
	}
	return out, nil
}

func newPatchCmd(app *App) *cobra.Command {
	var (
		clipName string
		bone     string
		channel  string
		frame    int
		value    string
		fresh    bool
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "patch <model>",
		Short: "Overwrite one keyframe of a clip and snapshot the result",
		Long: strings.TrimSpace(`
Writes --value into keyframe --frame of the <bone>.<channel> track. Rotations are given as w,x,y,z.
The edit starts from the clip's stored snapshot when one exists (unless --fresh) and the result is
saved back to the store as a new revision.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := model.ParseChannelKind(channel)
			if !ok {
				return writeErr(cmd, fmt.Errorf("%w: %q", model.ErrInvalidChannel, channel))
			}
			v, err := parseValue(value)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !cmd.Flags().Changed("frame") {
				frame = app.Config.Session.FrameIndex
			}

			asset, err := app.LoadAsset(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			clip, err := pickClip(asset, clipName, app.Config.Session.ClipIndex)
			if err != nil {
				return writeErr(cmd, err)
			}

			report := patchReport{Asset: asset.Name(), Clip: clip.Name(), Track: model.TrackTarget(bone, kind), Frame: frame, Source: "model"}

			var st store.Store
			if !dryRun {
				st, err = app.OpenStore(cmd.Context())
				if err != nil {
					return writeErr(cmd, err)
				}
				defer st.Close()

				if !fresh {
					stored, rev, err := st.LoadClip(cmd.Context(), asset.Name(), clip.Name())
					switch {
					case err == nil:
						clip = stored
						report.Source = fmt.Sprintf("snapshot r%d", rev)
					case !errors.Is(err, store.ErrNotFound):
						return writeErr(cmd, err)
					}
				}
			}

			if matches := keyframe.FindTracks(clip, bone, kind); len(matches) > 0 {
				report.Before, _ = clip.Track(matches[0]).Sample(frame)
				if len(matches) > 1 {
					w := keyframe.DataIntegrityWarning{Target: report.Track, Indices: matches}
					report.Warning = fmt.Sprintf("%s at tracks %v, patched %d", w.Error(), matches, matches[0])
				}
			}

			patched, err := keyframe.NewPatcher(keyframe.WithLogger(app.Logger)).Patch(clip, bone, kind, frame, v)
			if err != nil {
				return writeErr(cmd, err)
			}
			report.After = v

			if st != nil {
				rev, err := st.SaveClip(cmd.Context(), asset.Name(), patched)
				if err != nil {
					return writeErr(cmd, err)
				}
				report.Revision = rev
			}
			return writeOut(cmd, app, report)
		},
	}

	cmd.Flags().StringVar(&clipName, "clip", "", "Clip name (default: the configured clip index)")
	cmd.Flags().StringVar(&bone, "bone", "", "Bone name")
	cmd.Flags().StringVar(&channel, "channel", "position", "Channel: position, rotation or scale")
	cmd.Flags().IntVar(&frame, "frame", 0, "Keyframe index (default: the configured frame index)")
	cmd.Flags().StringVar(&value, "value", "", "Comma-separated value, e.g. 0,1,0")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Start from the model's clip even if a snapshot exists")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Patch in memory only; do not open the store")
	_ = cmd.MarkFlagRequired("bone")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

// pickClip selects a clip by name, or by index when name is empty.
func pickClip(asset model.Asset, name string, index int) (*model.AnimationClip, error) {
	clips := asset.Animations()
	if name != "" {
		i := asset.GetAnimationIndex(name)
		if i < 0 {
			return nil, fmt.Errorf("clip %q not in %s (have %s)", name, asset.Name(), strings.Join(asset.AnimationNames(), ", "))
		}
		return clips[i], nil
	}
	if index < 0 || index >= len(clips) {
		return nil, fmt.Errorf("clip index %d out of range: %s has %d clips", index, asset.Name(), len(clips))
	}
	return clips[index], nil
}
