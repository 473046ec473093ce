package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear stored session data",
	Long:  `Reports the sessions which would be cleared. Expired sessions are removed by the table ttl, nothing is deleted by this command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		uids, _ := cmd.Flags().GetStringArray("uid")

		printClear(cmd.OutOrStdout(), uids)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().StringArrayP("uid", "u", nil, "Clear the session data of this user, may be repeated")
}

func printClear(w io.Writer, uids []string) {
	if len(uids) > 0 {
		fmt.Fprintf(w, "Ready to clear [%s] session data.\n", strings.Join(uids, ", "))
		return
	}

	fmt.Fprintln(w, "Clearing whole session data")
}
