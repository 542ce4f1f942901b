// Copyright © 2018 One Concern

package cmd

import (
	"fmt"

	"github.com/oneconcern/amos/pkg/core"
	"github.com/oneconcern/amos/pkg/model"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// setFile describes a string set to commit
type setFile struct {
	Component string            `yaml:"component"`
	Language  string            `yaml:"language"`
	Branch    string            `yaml:"branch"`
	Strings   map[string]string `yaml:"strings"`
	Deleted   []string          `yaml:"deleted,omitempty"`
}

func (f setFile) stringSet() (*model.StringSet, error) {
	version, err := model.VersionByBranch(f.Branch)
	if err != nil {
		return nil, err
	}
	set := model.NewStringSet(f.Component, f.Language, version)
	for id, text := range f.Strings {
		if err := set.Add(model.NewString(id, text), false); err != nil {
			return nil, err
		}
	}
	for _, id := range f.Deleted {
		if err := set.Add(model.NewString(id, "", model.AsDeleted()), false); err != nil {
			return nil, fmt.Errorf("string %q both set and deleted: %w", id, err)
		}
	}
	return set, nil
}

func readSetFile(fs afero.Fs, path string) (*model.StringSet, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var f setFile
	if err = yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f.stringSet()
}

type commitOutput struct {
	Commit     string `yaml:"commit,omitempty"`
	Records    int    `yaml:"records"`
	Propagated int    `yaml:"propagated,omitempty"`
}

func (c *cli) commitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit a string set described by a YAML file",
		Long: `Commit a string set described by a YAML file such as:

  component: admin
  language: cs
  branch: MOODLE_20_STABLE
  strings:
    configsitepolicy: Zásady stránek
  deleted:
    - sitepolicy

The set is rebased before the commit: unchanged strings are not recorded.
With --full, the file is the complete content of the component, and strings missing from it are deleted.
`,
		Example: `amos commit --file admin-cs.yaml --message "Czech update" --propagate MOODLE_21_STABLE,MOODLE_22_STABLE`,
		RunE: c.runE(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			set, err := readSetFile(c.fs, c.flags.commit.file)
			if err != nil {
				return err
			}

			stage := c.repo.NewStage()
			if err = stage.Put(set, false); err != nil {
				return err
			}

			at := c.flags.set.at
			if c.flags.commit.full {
				if err = stage.Rebase(ctx, core.RebaseAt(at), core.FullSnapshot()); err != nil {
					return err
				}
			}

			var out commitOutput
			if len(c.flags.commit.propagate) > 0 {
				out.Propagated, err = stage.Propagate(ctx, c.flags.commit.propagate)
				if err != nil {
					return err
				}
			}

			res, err := stage.Commit(ctx, c.flags.commit.message, nil, core.CommitAt(at), core.Source(c.flags.commit.source))
			if err != nil {
				return err
			}
			out.Commit, out.Records = res.ID, res.Records
			c.logger.Debug("set committed", zap.String("commit", res.ID), zap.String("set", set.Key().String()))
			return writeYAML(cmd.OutOrStdout(), out)
		}),
	}

	cmd.Flags().StringVarP(&c.flags.commit.file, "file", "f", "", "The YAML file describing the string set")
	_ = cmd.MarkFlagRequired("file")
	addMessageFlag(cmd, &c.flags.commit.message)
	cmd.Flags().StringVar(&c.flags.commit.source, "source", "cli", "The origin of the change, recorded with the commit")
	cmd.Flags().BoolVar(&c.flags.commit.full, "full", false, "Delete the strings of the component missing from the file")
	cmd.Flags().Var(&c.flags.commit.propagate, "propagate", "Propagate translations to these branches (comma-separated, repeatable)")
	addAtFlag(cmd, &c.flags.set.at, "at", "The commit time (RFC3339), defaults to now")
	return cmd
}
