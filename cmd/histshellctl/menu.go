package main

import (
	"fmt"
	"os"
	"strconv"

	godbus "github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/histshell/internal/dbusmenu"
	"github.com/jmylchreest/histshell/internal/output"
	"github.com/jmylchreest/histshell/internal/tui"
)

var menuOpts struct {
	format string
}

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Inspect and drive tray item menus",
	Long: `Inspect and drive the DBusMenu of a tray item.

ITEM is the item's bus name, optionally followed by its object path
("org.example.App" or ":1.42/StatusNotifierItem"). PATH is the menu object
path the item advertises, for example /MenuBar.`,
}

var menuDumpCmd = &cobra.Command{
	Use:   "dump ITEM PATH",
	Short: "Print a menu layout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := menuPath(args[1])
		if err != nil {
			return err
		}
		f, err := output.NewMenuFormatter(output.Format(menuOpts.format))
		if err != nil {
			return err
		}

		ctx, cancel := callContext(cmd)
		defer cancel()
		layout, err := menuClient().Layout(ctx, args[0], path)
		if err != nil {
			return err
		}
		logger.Debug("menu fetched", "revision", layout.Revision, "nodes", dbusmenu.Count(layout.Nodes))
		return f.Format(os.Stdout, layout.Nodes)
	},
}

var menuActivateCmd = &cobra.Command{
	Use:   "activate ITEM PATH ID",
	Short: "Send a click to a menu entry",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := menuPath(args[1])
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[2], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid menu entry id %q", args[2])
		}

		ctx, cancel := callContext(cmd)
		defer cancel()
		return menuClient().Activate(ctx, args[0], path, int32(id))
	},
}

var menuBrowseCmd = &cobra.Command{
	Use:   "browse ITEM PATH",
	Short: "Browse a menu in the terminal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := menuPath(args[1])
		if err != nil {
			return err
		}
		return tui.Run(menuClient(), tui.Options{
			ItemID:         args[0],
			MenuPath:       path,
			Timeout:        cfg.Menu.FetchTimeout.Duration(),
			QuitOnActivate: menuQuitOnActivate,
		})
	},
}

var menuQuitOnActivate bool

var menuOpenCmd = &cobra.Command{
	Use:   "open ITEM PATH",
	Short: "Open a menu in the daemon's tray menu window",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := menuPath(args[1])
		if err != nil {
			return err
		}
		ctx, cancel := callContext(cmd)
		defer cancel()
		return controlClient().OpenMenu(ctx, args[0], path)
	},
}

func init() {
	rootCmd.AddCommand(menuCmd)
	menuCmd.AddCommand(menuDumpCmd, menuActivateCmd, menuBrowseCmd, menuOpenCmd)

	menuDumpCmd.Flags().StringVarP(&menuOpts.format, "format", "f", string(output.FormatTree),
		fmt.Sprintf("Output format %v", output.MenuFormats))
	menuBrowseCmd.Flags().BoolVar(&menuQuitOnActivate, "quit", false,
		"Exit after activating an entry")
}

func menuPath(s string) (godbus.ObjectPath, error) {
	p := godbus.ObjectPath(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid object path %q", s)
	}
	return p, nil
}

func menuClient() *dbusmenu.Client {
	decoder := dbusmenu.NewDecoder(logger)
	decoder.MaxDepth = cfg.Menu.MaxDepth
	decoder.MaxNodes = cfg.Menu.MaxNodes
	return dbusmenu.NewClient(dbusmenu.NewConnCaller(conn), decoder, logger)
}
