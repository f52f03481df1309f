package cli

import (
	"strconv"
	"time"

	"github.com/Carmen-Shannon/oxy-keyframe/engine/store"
	"github.com/spf13/cobra"
)

type clipList []store.ClipInfo

func (l clipList) renderText() string {
	if len(l) == 0 {
		return labelStyle.Render("no snapshots")
	}
	rows := make([][]string, len(l))
	for i, c := range l {
		rows[i] = []string{c.Asset, c.Clip, strconv.FormatInt(c.Revision, 10), strconv.Itoa(c.Tracks), c.UpdatedAt.Local().Format(time.DateTime)}
	}
	return columns([]string{"ASSET", "CLIP", "REV", "TRACKS", "UPDATED"}, rows)
}

func newClipsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clips [asset]",
		Short: "List clip snapshots in the store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.OpenStore(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			var asset string
			if len(args) == 1 {
				asset = args[0]
			}
			infos, err := st.ListClips(cmd.Context(), asset)
			if err != nil {
				return writeErr(cmd, err)
			}
			if infos == nil {
				infos = []store.ClipInfo{}
			}
			return writeOut(cmd, app, clipList(infos))
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <asset> <clip>",
		Short: "Delete a clip snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.OpenStore(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			if err := st.DeleteClip(cmd.Context(), args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"deleted": args[0] + "/" + args[1]})
		},
	})
	return cmd
}
