package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/histshell/internal/notify"
	"github.com/jmylchreest/histshell/internal/output"
)

const maxPageButtons = 7

var historyOpts struct {
	format   string
	template string
	page     int
	perPage  int
	bodyLen  int
}

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"hist"},
	Short:   "Show notification history",
	Long: `Show the daemon's notification history, newest first.

Examples:
  # Plain listing
  histshellctl history

  # Second page of ten
  histshellctl history --page 2 --per-page 10

  # Pick one with a launcher
  histshellctl history --format dmenu | fuzzel -d`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Remove one notification from history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := callContext(cmd)
		defer cancel()
		return controlClient().RemoveFromHistory(ctx, id)
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear history and dismiss every popup",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := callContext(cmd)
		defer cancel()
		return controlClient().ClearHistory(ctx)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyRmCmd, historyClearCmd)

	historyCmd.Flags().StringVarP(&historyOpts.format, "format", "f", string(output.FormatPlain),
		fmt.Sprintf("Output format %v", output.HistoryFormats))
	historyCmd.Flags().StringVar(&historyOpts.template, "template", "",
		"Go template for plain and dmenu lines")
	historyCmd.Flags().IntVar(&historyOpts.page, "page", 1, "Page to show (1-indexed)")
	historyCmd.Flags().IntVar(&historyOpts.perPage, "per-page", 0, "Notifications per page (0 = all)")
	historyCmd.Flags().IntVar(&historyOpts.bodyLen, "body-len", output.DefaultOptions().BodyMaxLen,
		"Truncate bodies to this many characters (0 = unlimited)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx, cancel := callContext(cmd)
	defer cancel()

	history, err := controlClient().History(ctx)
	if err != nil {
		return err
	}

	footer := ""
	if historyOpts.perPage > 0 {
		total := notify.TotalPages(len(history), historyOpts.perPage)
		page := notify.Paginate(history, historyOpts.page, historyOpts.perPage)
		history = page.Items
		footer = pageFooter(page.CurrentPage, total)
		logger.Debug("history page", "page", page.CurrentPage, "total_pages", total)
	}

	opts := output.DefaultOptions()
	opts.Template = historyOpts.template
	opts.BodyMaxLen = historyOpts.bodyLen

	f, err := output.NewHistoryFormatter(output.Format(historyOpts.format), opts)
	if err != nil {
		return err
	}
	if err := f.Format(os.Stdout, history); err != nil {
		return err
	}
	if footer != "" {
		// stderr keeps piped output parseable
		fmt.Fprintln(os.Stderr, footer)
	}
	return nil
}

// pageFooter renders "Page 3/9: 1 … 2 [3] 4 … 9".
func pageFooter(current, total int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Page %d/%d:", current, total)
	for _, n := range notify.VisiblePageNumbers(current, total, maxPageButtons) {
		switch n {
		case notify.Ellipsis:
			sb.WriteString(" …")
		case current:
			fmt.Fprintf(&sb, " [%d]", n)
		default:
			fmt.Fprintf(&sb, " %d", n)
		}
	}
	return sb.String()
}

func parseID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid notification id %q", s)
	}
	return uint32(id), nil
}
