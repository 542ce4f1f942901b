// Copyright © 2018 One Concern

package cmd

import (
	"fmt"

	"github.com/oneconcern/amos/pkg/core"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

func (c *cli) snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshot",
		Short:   "Print the strings of a component, as of some time",
		Example: `amos snapshot --component admin --lang cs --branch MOODLE_20_STABLE --at 2010-10-01T00:00:00Z`,
		RunE: c.runE(func(cmd *cobra.Command, _ []string) error {
			set, err := c.repo.Snapshot(cmd.Context(), c.flags.set.component, c.flags.set.lang, c.flags.set.version.Version, c.flags.set.at)
			if err != nil {
				return err
			}

			if c.flags.snapshot.legacy {
				for _, line := range core.RenderLegacy(set) {
					if _, err = fmt.Fprint(cmd.OutOrStdout(), line); err != nil {
						return err
					}
				}
				return nil
			}

			strs := make(yaml.MapSlice, 0, set.Len())
			for _, s := range set.Strings() {
				strs = append(strs, yaml.MapItem{Key: s.ID, Value: s.Text})
			}
			return writeYAML(cmd.OutOrStdout(), strs)
		}),
	}

	addSetFlags(cmd, &c.flags)
	addAtFlag(cmd, &c.flags.set.at, "at", "The time of the snapshot (RFC3339), defaults to now")
	cmd.Flags().BoolVar(&c.flags.snapshot.legacy, "legacy", false, "Render the strings in the legacy string file syntax")
	return cmd
}
