// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/oneconcern/amos/pkg/core"
	"github.com/spf13/cobra"
)

func (c *cli) diffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "diff",
		Short:   "Show how the strings of a component changed between two points in time",
		Example: `amos diff --component admin --lang cs --branch MOODLE_20_STABLE --from 2010-10-01T00:00:00Z`,
		RunE: c.runE(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			version := c.flags.set.version.Version
			before, err := c.repo.Snapshot(ctx, c.flags.set.component, c.flags.set.lang, version, c.flags.diff.from)
			if err != nil {
				return err
			}
			after, err := c.repo.Snapshot(ctx, c.flags.set.component, c.flags.set.lang, version, c.flags.diff.to)
			if err != nil {
				return err
			}

			lines, err := core.UnifiedDiff(before, after)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range lines {
				if err = printDiffLine(out, line, c.flags.diff.color); err != nil {
					return err
				}
			}
			return nil
		}),
	}

	addSetFlags(cmd, &c.flags)
	addAtFlag(cmd, &c.flags.diff.from, "from", "The time of the former snapshot (RFC3339)")
	addAtFlag(cmd, &c.flags.diff.to, "to", "The time of the latter snapshot (RFC3339), defaults to now")
	cmd.Flags().BoolVar(&c.flags.diff.color, "color", false, "Colorize the output")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func printDiffLine(w io.Writer, line string, colored bool) error {
	if !colored {
		_, err := fmt.Fprintln(w, line)
		return err
	}

	var attr color.Attribute
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		attr = color.Bold
	case strings.HasPrefix(line, "@@"):
		attr = color.FgCyan
	case strings.HasPrefix(line, "+"):
		attr = color.FgGreen
	case strings.HasPrefix(line, "-"):
		attr = color.FgRed
	default:
		_, err := fmt.Fprintln(w, line)
		return err
	}
	c := color.New(attr)
	c.EnableColor()
	_, err := c.Fprintln(w, line)
	return err
}
