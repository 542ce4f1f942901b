// Copyright © 2018 One Concern

package cmd

import (
	"github.com/oneconcern/amos/pkg/core"
	"github.com/spf13/cobra"
)

func (c *cli) listOptions() []core.ListOption {
	opts := []core.ListOption{
		core.WithAuthoring(!c.flags.list.noAuthoring),
		core.ShowCode(c.flags.list.showCode),
	}
	if c.flags.list.noCache {
		opts = append(opts, core.NoCache())
	}
	return opts
}

func (c *cli) languagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List the known languages, with their names",
		RunE: c.runE(func(cmd *cobra.Command, _ []string) error {
			langs, err := c.repo.ListLanguages(cmd.Context(), c.listOptions()...)
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), langs)
		}),
	}
	cmd.Flags().BoolVar(&c.flags.list.noAuthoring, "no-authoring", false, "Leave out the authoring language")
	cmd.Flags().BoolVar(&c.flags.list.showCode, "show-code", false, "Append the language code to its name")
	cmd.Flags().BoolVar(&c.flags.list.noCache, "no-cache", false, "Bypass the cache")
	return cmd
}

func (c *cli) componentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "components",
		Short: "List the components holding strings in the authoring language",
		RunE: c.runE(func(cmd *cobra.Command, _ []string) error {
			components, err := c.repo.ListComponents(cmd.Context(), c.listOptions()...)
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), components)
		}),
	}
	cmd.Flags().BoolVar(&c.flags.list.noCache, "no-cache", false, "Bypass the cache")
	return cmd
}
