package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-keyframe/engine/keyframe"
	"github.com/Carmen-Shannon/oxy-keyframe/engine/model"
	"github.com/spf13/cobra"
)

type boneReport struct {
	Index  int    `json:"index" yaml:"index"`
	Name   string `json:"name" yaml:"name"`
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`
}

type trackReport struct {
	Name      string `json:"name" yaml:"name"`
	Keyframes int    `json:"keyframes" yaml:"keyframes"`
}

type clipReport struct {
	Index    int           `json:"index" yaml:"index"`
	Name     string        `json:"name" yaml:"name"`
	Duration float32       `json:"duration" yaml:"duration"`
	Tracks   []trackReport `json:"tracks" yaml:"tracks"`
	Warnings []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

type assetReport struct {
	Asset string       `json:"asset" yaml:"asset"`
	Bones []boneReport `json:"bones" yaml:"bones"`
	Clips []clipReport `json:"clips" yaml:"clips"`
}

func newAssetReport(asset model.Asset) assetReport {
	r := assetReport{Asset: asset.Name()}
	if sk := asset.Skeleton(); sk != nil {
		for i, b := range sk.Bones() {
			br := boneReport{Index: i, Name: b.Name}
			if b.Parent != nil {
				br.Parent = b.Parent.Name
			}
			r.Bones = append(r.Bones, br)
		}
	}
	for i, c := range asset.Animations() {
		cr := clipReport{Index: i, Name: c.Name(), Duration: c.Duration()}
		for _, t := range c.Tracks() {
			cr.Tracks = append(cr.Tracks, trackReport{Name: t.Name(), Keyframes: t.Len()})
		}
		for _, w := range keyframe.Duplicates(c) {
			cr.Warnings = append(cr.Warnings, fmt.Sprintf("%s at tracks %v, edits use %d", w.Error(), w.Indices, w.Indices[0]))
		}
		r.Clips = append(r.Clips, cr)
	}
	return r
}

func (r assetReport) renderText() string {
	var b strings.Builder
	b.WriteString(headingStyle.Render(r.Asset) + "\n")
	b.WriteString(field("bones", len(r.Bones)) + "\n")
	b.WriteString(field("clips", len(r.Clips)) + "\n\n")

	rows := make([][]string, len(r.Bones))
	for i, bone := range r.Bones {
		rows[i] = []string{strconv.Itoa(bone.Index), bone.Name, bone.Parent}
	}
	b.WriteString(columns([]string{"#", "BONE", "PARENT"}, rows) + "\n")

	for _, c := range r.Clips {
		b.WriteString("\n" + headingStyle.Render(fmt.Sprintf("%d %s", c.Index, c.Name)) + " " + labelStyle.Render(fmt.Sprintf("%.3gs", c.Duration)) + "\n")
		rows := make([][]string, len(c.Tracks))
		for i, t := range c.Tracks {
			rows[i] = []string{t.Name, strconv.Itoa(t.Keyframes)}
		}
		b.WriteString(columns([]string{"TRACK", "KEYS"}, rows) + "\n")
		for _, w := range c.Warnings {
			b.WriteString(warnStyle.Render("warning: "+w) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func newInspectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <model>",
		Short: "List a model's bones, clips and tracks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asset, err := app.LoadAsset(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, newAssetReport(asset))
		},
	}
	return cmd
}
