// Copyright © 2018 One Concern

package cmd

import (
	"errors"
	"slices"

	"github.com/oneconcern/amos/pkg/core"
	"github.com/oneconcern/amos/pkg/script"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type scriptOutput struct {
	Instructions []string            `yaml:"instructions"`
	Commits      []core.CommitResult `yaml:"commits"`
	Errors       []string            `yaml:"errors,omitempty"`
}

func (c *cli) scriptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "script",
		Short: "Execute the script embedded in a commit message",
		Long: `Execute the script embedded in a commit message, on one branch.

Instructions are written between AMOS BEGIN and AMOS END, for instance:

  AMOS BEGIN
   MOV [configsitepolicy,core_admin],[sitepolicy_help,core_admin]
   CPY [pluginname,auth_ldap],[auth_ldap,core_auth]
  AMOS END

Every instruction is committed on its own. Malformed instructions are reported, the others still run.
`,
		RunE: c.runE(func(cmd *cobra.Command, _ []string) error {
			message := c.flags.script.message
			if c.flags.script.messageFile != "" {
				data, err := afero.ReadFile(c.fs, c.flags.script.messageFile)
				if err != nil {
					return err
				}
				message = string(data)
			}
			if message == "" {
				return errors.New("a commit message is required, with --message or --message-file")
			}

			engine := script.NewEngine(c.repo, script.WithLogger(c.logger), script.WithMetrics(c.metrics))
			out := scriptOutput{
				Instructions: slices.Collect(script.Extract(message)),
				Commits:      []core.CommitResult{},
			}
			results, runErr := engine.Run(cmd.Context(), message, c.flags.set.version.Version, c.flags.set.at, map[string]string{"branch": c.flags.set.version.Branch})
			out.Commits = append(out.Commits, results...)
			if runErr != nil {
				out.Errors = append(out.Errors, runErr.Error())
			}
			if err := writeYAML(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			return runErr
		}),
	}

	addMessageFlag(cmd, &c.flags.script.message)
	cmd.Flags().StringVar(&c.flags.script.messageFile, "message-file", "", "Read the commit message from a file")
	cmd.Flags().Var(&c.flags.set.version, "branch", "The branch to execute the script on (e.g. MOODLE_20_STABLE)")
	_ = cmd.MarkFlagRequired("branch")
	addAtFlag(cmd, &c.flags.set.at, "at", "The execution time (RFC3339), defaults to now")
	return cmd
}
