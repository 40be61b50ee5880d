// Package cli wires the cobra commands of the voicescribe client tool.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/voicescribe/backend/config"
	"github.com/voicescribe/backend/internal/client"
)

// Dependencies carry everything the commands need.
type Dependencies struct {
	Config *config.Config
}

// apiClient builds a client from the configured server URL and the
// token in VOICESCRIBE_TOKEN.
func (d *Dependencies) apiClient() *client.Client {
	return client.New(d.Config.Capture.ServerURL, os.Getenv("VOICESCRIBE_TOKEN"))
}

// NewRootCmd builds the command tree.
func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "voicescribe",
		Short: "Record audio, then let the server transcribe and summarize it",
		Long:  "Captures microphone or meeting audio, uploads it to a VoiceScribe server, and follows the recording until its transcript and summary are ready.",
	}

	rootCmd.AddCommand(NewLoginCmd(deps))
	rootCmd.AddCommand(NewRecordCmd(deps))
	rootCmd.AddCommand(NewListCmd(deps))

	return rootCmd
}
