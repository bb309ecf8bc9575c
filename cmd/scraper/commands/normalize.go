package commands

import (
	"github.com/grez-lucas/traffic-scraper/internal/scraper/source"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(normalizeCmd)
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize <value>...",
	Short: "Prints the integer form of abbreviated counts such as 8.1K or 2M.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Value", "Count"})
		for _, arg := range args {
			n, err := source.ParseCount(arg)
			if err != nil {
				return err
			}
			t.AppendRow(table.Row{arg, n})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
