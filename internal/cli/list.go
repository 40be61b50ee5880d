package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewListCmd prints the caller's recordings.
func NewListCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := deps.apiClient().List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("No recordings yet.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CREATED\tTITLE\tSTATUS\tDURATION\tID")
			for _, item := range list {
				duration := "-"
				if item.Duration != nil {
					duration = fmt.Sprintf("%d:%02d", *item.Duration/60, *item.Duration%60)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					item.CreatedAt.Local().Format("2006-01-02 15:04"),
					item.Title, item.Status, duration, item.ID)
			}
			return w.Flush()
		},
	}
}
