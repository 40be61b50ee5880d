package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"

	"github.com/voicescribe/backend/internal/capture"
	"github.com/voicescribe/backend/internal/client"
	"github.com/voicescribe/backend/internal/models"
	"github.com/voicescribe/backend/internal/poller"
)

// NewRecordCmd captures audio until Ctrl+C, uploads it, and polls the
// recording until the pipeline finishes.
func NewRecordCmd(deps *Dependencies) *cobra.Command {
	var (
		mode     string
		title    string
		language string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record and upload a new session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode != string(capture.ModeRoom) && mode != string(capture.ModeVirtual) {
				return fmt.Errorf("mode must be %q or %q", capture.ModeRoom, capture.ModeVirtual)
			}
			if err := capture.CheckFFmpeg(); err != nil {
				return err
			}
			return runRecord(cmd.Context(), deps, capture.Mode(mode), title, language)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(capture.ModeRoom), "capture mode: room (microphone) or virtual (meeting audio + microphone)")
	cmd.Flags().StringVarP(&title, "title", "t", "", "recording title")
	cmd.Flags().StringVarP(&language, "language", "l", "", "summary language code, e.g. en, es")

	return cmd
}

func runRecord(ctx context.Context, deps *Dependencies, mode capture.Mode, title, language string) error {
	devices := capture.FFmpegDevices{
		Microphone: deps.Config.Capture.Microphone,
		Monitor:    deps.Config.Capture.Monitor,
	}
	engine := capture.NewEngine(devices, capture.PCMMixer{}, nil)

	session, err := engine.Start(ctx, mode)
	if err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	fmt.Println("Recording... press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	blob, elapsed, err := session.Stop()
	if err != nil {
		return fmt.Errorf("stop capture: %w", err)
	}
	if len(blob.Data) == 0 {
		return fmt.Errorf("no audio captured")
	}
	fmt.Printf("Captured %d:%02d of audio, uploading...\n", elapsed/60, elapsed%60)

	api := deps.apiClient()
	rec, err := api.Upload(ctx, blob.Data, client.UploadOptions{
		Title:       title,
		Language:    language,
		Duration:    elapsed,
		ContentType: blob.ContentType,
		Filename:    "capture.wav",
	})
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	fmt.Printf("Uploaded as %s (share token %s)\n", rec.ID, rec.ShareToken)

	return followRecording(ctx, api, rec)
}

// followRecording polls until the pipeline reaches a terminal status
// and prints the summary when there is one.
func followRecording(ctx context.Context, api *client.Client, rec *models.Recording) error {
	last := rec.Status
	fmt.Printf("Status: %s\n", last)

	result, err := poller.Poll(ctx, func(ctx context.Context) (string, error) {
		status, err := api.Status(ctx, rec.ID)
		if err == nil && status != last {
			last = status
			fmt.Printf("Status: %s\n", status)
		}
		return status, err
	}, poller.DefaultPolicy(), clock.New())
	if err != nil {
		return err
	}
	if result.TimedOut {
		return fmt.Errorf("gave up after %d polls; check the recording later with 'voicescribe list'", result.Attempts)
	}
	if result.Status == models.StatusError {
		return fmt.Errorf("processing failed, recording %s is in the error state", rec.ID)
	}

	full, err := api.Get(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("fetch result: %w", err)
	}
	if full.Summary != nil {
		fmt.Println("\n" + *full.Summary)
	}
	return nil
}
