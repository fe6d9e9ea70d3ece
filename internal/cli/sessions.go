package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func NewSessionsCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List audio sessions that would be ducked while recording",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, err := setup(deps)
			if err != nil {
				return err
			}

			infos, err := deps.ListSessions(log)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				cmd.Println("No audio sessions found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DEVICE\tSESSION\tPID\tSTATE\tVOLUME\tDUCK")
			for _, info := range infos {
				duck := "yes"
				if !info.Selected() {
					duck = "no (" + info.SkipReason + ")"
				}
				fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%.2f\t%s\n",
					info.Device, info.Index, info.ProcessID, info.State, info.Volume, duck)
			}
			return w.Flush()
		},
	}
}
