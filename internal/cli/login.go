package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCmd exchanges credentials for a bearer token. The token is
// printed for the user to export as VOICESCRIBE_TOKEN.
func NewLoginCmd(deps *Dependencies) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print an API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				fmt.Print("Email: ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil {
					return err
				}
				email = strings.TrimSpace(line)
			}

			fmt.Print("Password: ")
			secret, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return err
			}

			token, err := deps.apiClient().Login(cmd.Context(), email, string(secret))
			if err != nil {
				return err
			}
			fmt.Println("Logged in. Export the token for the other commands:")
			fmt.Printf("\n  export VOICESCRIBE_TOKEN=%s\n", token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}
