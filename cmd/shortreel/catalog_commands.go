package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shortreel/internal/music"
	"shortreel/internal/shorts"
)

func newCatalogCommands(ctx *commandContext) []*cobra.Command {
	moodsCmd := &cobra.Command{
		Use:     "moods",
		Aliases: []string{"music-tags"},
		Short:   "List background music moods",
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := ctx.client().MusicTags(cmd.Context())
			if err != nil {
				// The bundled catalog answers when no daemon is reachable.
				catalog, catErr := music.DefaultCatalog()
				if catErr != nil {
					return catErr
				}
				tags = tags[:0]
				for _, mood := range catalog.Moods() {
					tags = append(tags, string(mood))
				}
			}
			for _, tag := range tags {
				fmt.Fprintln(cmd.OutOrStdout(), tag)
			}
			return nil
		},
	}

	voicesCmd := &cobra.Command{
		Use:   "voices",
		Short: "List narration voices",
		RunE: func(cmd *cobra.Command, args []string) error {
			voices, err := ctx.client().Voices(cmd.Context())
			if err != nil {
				voices = shorts.Voices()
			}
			for _, voice := range voices {
				fmt.Fprintln(cmd.OutOrStdout(), voice)
			}
			return nil
		},
	}

	return []*cobra.Command{moodsCmd, voicesCmd}
}
