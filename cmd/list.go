package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"facefortune/internal/gate"
	"facefortune/internal/utils"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored reports",
	Run: func(cmd *cobra.Command, args []string) {
		runList(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(ctx context.Context) {
	reports, err := DB.ListReports(ctx)
	if err != nil {
		utils.Die("Failed to list reports", err)
	}

	if len(reports) == 0 {
		fmt.Println("No reports found in database.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tSCORE\tSUMMARY\tCREATED")
	fmt.Fprintln(w, "--\t-----\t-------\t-------")

	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%.0f\t%s\t%s\n",
			shortID(r.ID),
			r.Score.Score,
			truncate(gate.CleanSummary(r.Score.Summary), 40),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	w.Flush()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
