package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newActionCommands(ctx *commandContext) []*cobra.Command {
	actions := []struct {
		use   string
		short string
	}{
		{"next", "Switch to the next asset"},
		{"previous", "Switch to the previous asset"},
		{"random", "Switch to a random asset"},
		{"pause", "Pause playback on the current frame"},
		{"resume", "Resume playback"},
		{"toggle", "Toggle between paused and playing"},
	}

	commands := make([]*cobra.Command, 0, len(actions))
	for _, action := range actions {
		name := action.use
		commands = append(commands, &cobra.Command{
			Use:   name,
			Short: action.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := ctx.client()
				if err != nil {
					return err
				}
				result, err := client.Action(name)
				if err != nil {
					return err
				}
				switch {
				case !result.Accepted:
					fmt.Fprintln(cmd.OutOrStdout(), "busy, request dropped")
				case result.Paused:
					fmt.Fprintln(cmd.OutOrStdout(), "paused")
				default:
					fmt.Fprintln(cmd.OutOrStdout(), "ok")
				}
				return nil
			},
		})
	}
	return commands
}
