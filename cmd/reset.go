package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"facefortune/internal/session"
	"facefortune/internal/utils"

	"github.com/spf13/cobra"
)

var (
	resetReports bool
	resetSession bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset system state (Reports, Session backup)",
	Long:  "Clears stored data. By default, it resets everything. Use flags to clear specific components.",
	Run: func(cmd *cobra.Command, args []string) {
		// If no flags are set, default to clearing EVERYTHING
		if !resetReports && !resetSession {
			resetReports = true
			resetSession = true
		}

		reader := bufio.NewReader(os.Stdin)
		fmt.Print("⚠️  This permanently deletes the selected data. Continue? [y/N]: ")
		line, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(line)) != "y" {
			fmt.Println("Aborted.")
			return
		}

		if resetReports {
			if err := DB.Reset(cmd.Context()); err != nil {
				utils.Die("Failed to reset database", err)
			}
			fmt.Println("🧹 Report store cleared.")
		}
		if resetSession {
			if err := session.Open(session.DefaultDir()).Clear(); err != nil {
				utils.Die("Failed to clear session backup", err)
			}
			fmt.Println("🧹 Session backup cleared.")
		}
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetReports, "reports", false, "Clear the report store only")
	resetCmd.Flags().BoolVar(&resetSession, "session", false, "Clear the session backup only")
	rootCmd.AddCommand(resetCmd)
}
