// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/oneconcern/amos/internal"
	"github.com/oneconcern/amos/pkg/config"
	"github.com/oneconcern/amos/pkg/core"
	"github.com/oneconcern/amos/pkg/dlogger"
	"github.com/oneconcern/amos/pkg/metrics"
	"github.com/oneconcern/amos/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// logOpener opens the configured repository log
type logOpener func(*config.Config, *zap.Logger) (store.Log, error)

func openConfiguredLog(c *config.Config, logger *zap.Logger) (store.Log, error) {
	return c.OpenLog(logger)
}

// cli holds the state shared by the commands of one invocation
type cli struct {
	flags   flagsT
	fs      afero.Fs
	openLog logOpener

	config  *config.Config
	logger  *zap.Logger
	metrics *metrics.M
	repo    *core.Repository
	stop    func()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := newRootCmd(afero.NewOsFs(), openConfiguredLog).Execute(); err != nil {
		wrapFatalWithCodef(1, "%v", err)
	}
}

func newRootCmd(fs afero.Fs, opener logOpener) *cobra.Command {
	c := &cli{fs: fs, openLog: opener}

	rootCmd := &cobra.Command{
		Use:   "amos",
		Short: "amos maintains the translations of a product across versions and languages",
		Long: `amos maintains the translated strings of a product across many versions and languages.

Changes are staged, rebased against the repository log, then committed as immutable records.
Translations may be propagated to sibling versions, and scripts embedded in commit messages
replay structural changes (moved or copied strings) across all the translations.
`,
		SilenceUsage:       true,
		PersistentPreRunE:  c.setup,
		PersistentPostRunE: c.teardown,
	}

	addConfigFlag(rootCmd, &c.flags)
	addLogLevelFlag(rootCmd, &c.flags)
	addCPUProfFlag(rootCmd, &c.flags)

	rootCmd.AddCommand(
		c.commitCmd(),
		c.snapshotCmd(),
		c.languagesCmd(),
		c.componentsCmd(),
		c.treeCmd(),
		c.scriptCmd(),
		c.diffCmd(),
	)
	return rootCmd
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	file := c.flags.root.config
	if file == "" {
		file = os.Getenv("AMOS_CONFIG")
	}
	v, err := config.NewWithFs(c.fs, file)
	if err != nil {
		return fmt.Errorf("reading configuration: %w", err)
	}
	if c.flags.root.logLevel != "" {
		v.Set("log_level", c.flags.root.logLevel)
	}
	c.config, err = config.Load(v)
	if err != nil {
		return err
	}

	c.logger, err = dlogger.GetLogger(c.config.LogLevel)
	if err != nil {
		return err
	}
	if file := v.ConfigFileUsed(); file != "" {
		c.logger.Debug("using config file", zap.String("file", file))
	}

	c.stop, err = internal.StartCPUProfile(c.flags.root.cpuProf, c.logger)
	if err != nil {
		return err
	}

	c.metrics, err = metrics.New(prometheus.NewRegistry())
	if err != nil {
		return err
	}

	log, err := c.openLog(c.config, c.logger)
	if err != nil {
		return err
	}
	c.repo, err = core.New(log,
		core.WithLogger(c.logger),
		core.WithMetrics(c.metrics),
		core.AuthoringLanguage(c.config.Authoring),
		core.BaseName(c.config.BaseName),
		core.CacheSize(c.config.CacheSize),
	)
	if err != nil {
		return multierr.Append(err, log.Close())
	}
	return nil
}

// runE releases resources when a command fails, since post-run hooks are skipped then
func (c *cli) runE(f func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := f(cmd, args); err != nil {
			return multierr.Append(err, c.teardown(cmd, args))
		}
		return nil
	}
}

func (c *cli) teardown(_ *cobra.Command, _ []string) error {
	var err error
	if c.repo != nil {
		err = multierr.Append(err, c.repo.Log().Close())
		c.repo = nil
	}
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
	return err
}

func writeYAML(w io.Writer, v interface{}) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
