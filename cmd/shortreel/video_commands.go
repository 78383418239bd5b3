package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"shortreel/internal/api"
	"shortreel/internal/shorts"
)

func newVideoCommand(ctx *commandContext) *cobra.Command {
	videoCmd := &cobra.Command{
		Use:   "video",
		Short: "Submit, inspect and fetch videos",
	}
	videoCmd.AddCommand(
		newVideoSubmitCommand(ctx),
		newVideoStatusCommand(ctx),
		newVideoListCommand(ctx),
		newVideoDownloadCommand(ctx),
		newVideoDeleteCommand(ctx),
	)
	return videoCmd
}

// loadSubmission reads a YAML or JSON request document; "-" reads stdin.
func loadSubmission(path string, stdin io.Reader) (shorts.Submission, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return shorts.Submission{}, fmt.Errorf("read submission: %w", err)
	}
	var sub shorts.Submission
	if err := yaml.Unmarshal(data, &sub); err != nil {
		return shorts.Submission{}, fmt.Errorf("parse submission %s: %w", path, err)
	}
	return sub, nil
}

func newVideoSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		file      string
		text      string
		terms     []string
		music     string
		voice     string
		landscape bool
		wait      bool
		output    string
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Queue a new video",
		Long: "Queue a new video from a YAML/JSON request file (--file) or a single\n" +
			"scene given with --text and --terms.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var sub shorts.Submission
			switch {
			case file != "":
				loaded, err := loadSubmission(file, cmd.InOrStdin())
				if err != nil {
					return err
				}
				sub = loaded
			case text != "":
				sub.Scenes = []shorts.SceneRequest{shorts.NewSearchScene(text, terms...)}
			default:
				return errors.New("either --file or --text is required")
			}
			if music != "" {
				sub.Config.Music = shorts.Mood(music)
			}
			if voice != "" {
				sub.Config.Voice = voice
			}
			if landscape {
				sub.Config.Orientation = shorts.OrientationLandscape
			}

			client := ctx.client()
			id, err := client.Submit(cmd.Context(), sub)
			if err != nil {
				return wrapClientError(err, ctx.apiAddress())
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Queued video %s\n", id)
			if !wait {
				return nil
			}

			status, err := waitForVideo(cmd.Context(), client, id, 2*time.Second)
			if err != nil {
				return wrapClientError(err, ctx.apiAddress())
			}
			if status != "ready" {
				return fmt.Errorf("video %s %s", id, status)
			}
			fmt.Fprintf(out, "Video %s ready\n", id)
			if output == "" {
				return nil
			}
			return downloadTo(cmd, client, id, output)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Request file (YAML or JSON, - for stdin)")
	cmd.Flags().StringVar(&text, "text", "", "Narration for a single-scene video")
	cmd.Flags().StringSliceVar(&terms, "terms", nil, "Footage search terms for --text")
	cmd.Flags().StringVar(&music, "music", "", "Background music mood")
	cmd.Flags().StringVar(&voice, "voice", "", "Narration voice")
	cmd.Flags().BoolVar(&landscape, "landscape", false, "Render in landscape orientation")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the video is ready or failed")
	cmd.Flags().StringVarP(&output, "output", "o", "", "With --wait, download the finished video to this path")
	return cmd
}

func waitForVideo(ctx context.Context, client *api.Client, id string, interval time.Duration) (string, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		status, err := client.Status(ctx, id)
		if err != nil {
			return "", err
		}
		if status != "processing" {
			return status, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func newVideoStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show the status of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := ctx.client().Status(cmd.Context(), args[0])
			if err != nil {
				return wrapClientError(err, ctx.apiAddress())
			}
			fmt.Fprintln(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func newVideoListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued and finished videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			videos, err := ctx.client().List(cmd.Context())
			if err != nil {
				return wrapClientError(err, ctx.apiAddress())
			}
			pr := newPrinter(cmd.OutOrStdout())
			if asJSON {
				return pr.json(videos)
			}
			if len(videos) == 0 {
				fmt.Fprintln(pr.w, "No videos")
				return nil
			}
			if !pr.color {
				for _, video := range videos {
					fmt.Fprintf(pr.w, "%s\t%s\n", video.ID, video.Status)
				}
				return nil
			}
			rows := make([][]string, 0, len(videos))
			for _, video := range videos {
				rows = append(rows, []string{video.ID, pr.paint(formatStatusLabel(video.Status), statusColors(video.Status))})
			}
			pr.table([]string{"ID", "Status"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the listing as JSON")
	return cmd
}

func newVideoDownloadCommand(ctx *commandContext) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download a finished video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := output
			if target == "" {
				target = args[0] + ".mp4"
			}
			return downloadTo(cmd, ctx.client(), args[0], target)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination path (defaults to <id>.mp4)")
	return cmd
}

func downloadTo(cmd *cobra.Command, client *api.Client, id, target string) error {
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	tmp := target + ".part"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	n, err := client.Download(cmd.Context(), id, file)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("download %s: %w", id, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize download: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", target, humanBytes(n))
	return nil
}

func newVideoDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a finished video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.client().Delete(cmd.Context(), args[0]); err != nil {
				return wrapClientError(err, ctx.apiAddress())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted video %s\n", strings.TrimSpace(args[0]))
			return nil
		},
	}
}
