// Copyright © 2018 One Concern

package cmd

import (
	"strings"
	"time"

	"github.com/oneconcern/amos/pkg/model"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type flagsT struct {
	root struct {
		config   string
		logLevel string
		cpuProf  string
	}
	set struct {
		component string
		lang      string
		version   versionValue
		at        time.Time
	}
	commit struct {
		file      string
		message   string
		source    string
		full      bool
		propagate versionsValue
	}
	list struct {
		noAuthoring bool
		showCode    bool
		noCache     bool
	}
	tree struct {
		versions   versionsValue
		languages  []string
		components []string
	}
	script struct {
		message     string
		messageFile string
	}
	diff struct {
		from  time.Time
		to    time.Time
		color bool
	}
	snapshot struct {
		legacy bool
	}
}

// versionValue is a flag holding a version, given as a branch name (MOODLE_20_STABLE)
type versionValue struct {
	model.Version
}

var _ pflag.Value = &versionValue{}

func (v *versionValue) Set(branch string) error {
	version, err := model.VersionByBranch(strings.TrimSpace(branch))
	if err != nil {
		return err
	}
	v.Version = version
	return nil
}

func (v *versionValue) String() string {
	return v.Branch
}

func (v *versionValue) Type() string {
	return "branch"
}

// versionsValue is a repeatable flag holding versions, given as comma-separated branch names
type versionsValue []model.Version

var _ pflag.Value = &versionsValue{}

func (v *versionsValue) Set(branches string) error {
	for _, branch := range strings.Split(branches, ",") {
		var version versionValue
		if err := version.Set(branch); err != nil {
			return err
		}
		*v = append(*v, version.Version)
	}
	return nil
}

func (v *versionsValue) String() string {
	branches := make([]string, 0, len(*v))
	for _, version := range *v {
		branches = append(branches, version.Branch)
	}
	return "[" + strings.Join(branches, ",") + "]"
}

func (v *versionsValue) Type() string {
	return "branches"
}

func (v versionsValue) codes() []int {
	if len(v) == 0 {
		return nil
	}
	codes := make([]int, 0, len(v))
	for _, version := range v {
		codes = append(codes, version.Code)
	}
	return codes
}

// timeValue is a flag holding an RFC3339 time
type timeValue struct {
	t *time.Time
}

var _ pflag.Value = timeValue{}

func (v timeValue) Set(s string) error {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*v.t = t
	return nil
}

func (v timeValue) String() string {
	if v.t == nil || v.t.IsZero() {
		return ""
	}
	return v.t.Format(time.RFC3339)
}

func (v timeValue) Type() string {
	return "time"
}

func addConfigFlag(cmd *cobra.Command, flags *flagsT) string {
	c := "config"
	cmd.PersistentFlags().StringVar(&flags.root.config, c, "", "Configuration file (defaults to amos.yaml in ., $HOME/.amos or /etc/amos, or $AMOS_CONFIG)")
	return c
}

func addLogLevelFlag(cmd *cobra.Command, flags *flagsT) string {
	logLevel := "loglevel"
	cmd.PersistentFlags().StringVar(&flags.root.logLevel, logLevel, "", "The logging level: info, debug or none. Overrides the configured log_level")
	return logLevel
}

func addCPUProfFlag(cmd *cobra.Command, flags *flagsT) string {
	cpuProf := "cpuprof"
	cmd.PersistentFlags().StringVar(&flags.root.cpuProf, cpuProf, "", "Write a CPU profile to this file")
	return cpuProf
}

func addSetFlags(cmd *cobra.Command, flags *flagsT) {
	cmd.Flags().StringVar(&flags.set.component, "component", "", "The component name")
	cmd.Flags().StringVar(&flags.set.lang, "lang", "", "The language code")
	cmd.Flags().Var(&flags.set.version, "branch", "The version, as a branch name (e.g. MOODLE_20_STABLE)")
	_ = cmd.MarkFlagRequired("component")
	_ = cmd.MarkFlagRequired("lang")
	_ = cmd.MarkFlagRequired("branch")
}

func addAtFlag(cmd *cobra.Command, target *time.Time, name, usage string) string {
	cmd.Flags().Var(timeValue{t: target}, name, usage)
	return name
}

func addMessageFlag(cmd *cobra.Command, target *string) string {
	message := "message"
	cmd.Flags().StringVarP(target, message, "m", "", "The commit message")
	return message
}
