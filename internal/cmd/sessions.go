package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/navihq/navi/internal/appdir"
	"github.com/navihq/navi/internal/session"
)

var sessionsShowArchived bool

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir := cfg.Storage.DataDir
		if dataDir == "" {
			var err error
			dataDir, err = appdir.SessionsDir()
			if err != nil {
				return err
			}
		}
		store, err := session.NewFileStore(dataDir)
		if err != nil {
			return err
		}
		sessions, err := store.List()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tUPDATED\tTOKENS\tCOST")
		for _, s := range sessions {
			if s.Archived && !sessionsShowArchived {
				continue
			}
			title := s.Title
			if s.Archived {
				title += " (archived)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t$%.4f\n",
				s.ID, title,
				s.UpdatedAt.Format("2006-01-02 15:04"),
				s.Usage.InputTokens+s.Usage.OutputTokens,
				s.CostUSD)
		}
		return w.Flush()
	},
}

func init() {
	sessionsCmd.Flags().BoolVar(&sessionsShowArchived, "all", false, "include archived sessions")
}
