package main

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/joosthooz/smarttimers/pkg/clock"
)

var clocksCmd = &cobra.Command{
	Use:   "clocks",
	Short: "List available clocks",
	Long:  "List the registered clocks and their metadata.",
	RunE:  runClocks,
}

func init() {
	rootCmd.AddCommand(clocksCmd)
}

func runClocks(cmd *cobra.Command, _ []string) error {
	registry := clock.DefaultRegistry()

	table, err := renderClockTable(registry)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), table)

	return nil
}

// renderClockTable builds a table of clock metadata using tablewriter.
func renderClockTable(registry *clock.Registry) (string, error) {
	var buf bytes.Buffer

	t := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleRounded),
		})),
		tablewriter.WithPadding(tw.Padding{Left: " ", Right: " "}),
	)

	t.Header([]string{"ID", "Implementation", "Resolution", "Monotonic", "Adjustable"})

	for _, id := range registry.IDs() {
		c, err := registry.Resolve(id)
		if err != nil {
			return "", errors.Wrapf(err, "failed to resolve clock %q", id)
		}

		info := c.Info()

		if appendErr := t.Append([]string{
			id,
			info.Implementation,
			info.Resolution.String(),
			strconv.FormatBool(info.Monotonic),
			strconv.FormatBool(info.Adjustable),
		}); appendErr != nil {
			return "", errors.Wrap(appendErr, "failed to append table row")
		}
	}

	if err := t.Render(); err != nil {
		return "", errors.Wrap(err, "failed to render table")
	}

	return buf.String(), nil
}
