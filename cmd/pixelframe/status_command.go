package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and playback status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status()
			if err != nil {
				return err
			}

			if jsonFlag || !isatty.IsTerminal(os.Stdout.Fd()) {
				return writeJSON(cmd, status)
			}

			playing := status.Playback.Asset
			if playing == "" {
				playing = "(loading)"
			}
			state := "playing"
			if status.Playback.Paused {
				state = "paused"
			}

			rows := [][]string{
				{"Asset", playing},
				{"State", state},
				{"Format", status.Playback.Format},
				{"Source", fmt.Sprintf("%dx%d, %d frames",
					status.Playback.SourceWidth, status.Playback.SourceHeight, status.Playback.FrameCount)},
				{"Playlist", fmt.Sprintf("%d of %d in %s",
					status.Playback.Index+1, status.Playback.PlaylistCount, status.Playback.PlaylistDir)},
				{"Panel", fmt.Sprintf("%dx%d %s, %d buffers",
					status.PanelWidth, status.PanelHeight, status.PixelFormat, status.BufferCount)},
				{"Unthrottled", strconv.FormatBool(status.Playback.Unthrottled)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderKV(rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Output JSON")
	return cmd
}
