package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dismissCmd = &cobra.Command{
	Use:   "dismiss ID",
	Short: "Dismiss a notification",
	Long: `Dismiss a notification: its popup closes and it leaves the daemon.
With --popup only the popup closes and the notification stays in history.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := callContext(cmd)
		defer cancel()

		client := controlClient()
		if dismissPopupOnly {
			return client.DismissPopup(ctx, id)
		}
		return client.DismissNotification(ctx, id)
	},
}

var dismissPopupOnly bool

var popupsCmd = &cobra.Command{
	Use:   "popups",
	Short: "List the ids of visible popups, top first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := callContext(cmd)
		defer cancel()

		ids, err := controlClient().ActivePopups(ctx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dismissCmd, popupsCmd)
	dismissCmd.Flags().BoolVar(&dismissPopupOnly, "popup", false, "Only close the popup")
}
