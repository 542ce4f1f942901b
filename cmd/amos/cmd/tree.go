// Copyright © 2018 One Concern

package cmd

import (
	"github.com/oneconcern/amos/pkg/store"
	"github.com/spf13/cobra"
)

func (c *cli) treeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tree",
		Short:   "Count the strings per version, language and component",
		Example: `amos tree --branch MOODLE_20_STABLE,MOODLE_21_STABLE --lang en --component moodle --component workshop`,
		RunE: c.runE(func(cmd *cobra.Command, _ []string) error {
			filter := store.Filter{
				Versions:   c.flags.tree.versions.codes(),
				Languages:  c.flags.tree.languages,
				Components: c.flags.tree.components,
			}
			tree, err := c.repo.ComponentsTree(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), tree)
		}),
	}
	cmd.Flags().Var(&c.flags.tree.versions, "branch", "Only count these branches (comma-separated, repeatable)")
	cmd.Flags().StringSliceVar(&c.flags.tree.languages, "lang", nil, "Only count these languages (comma-separated, repeatable)")
	cmd.Flags().StringSliceVar(&c.flags.tree.components, "component", nil, "Only count these components (comma-separated, repeatable)")
	return cmd
}
