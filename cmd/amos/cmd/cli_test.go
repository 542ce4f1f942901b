package cmd

import (
	"bytes"
	"testing"

	"github.com/oneconcern/amos/pkg/config"
	"github.com/oneconcern/amos/pkg/store"
	"github.com/oneconcern/amos/pkg/store/memory"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// sharedLog outlives the invocations of the CLI
type sharedLog struct {
	store.Log
}

func (sharedLog) Close() error { return nil }

type testCLI struct {
	t   *testing.T
	fs  afero.Fs
	log store.Log
}

func newTestCLI(t *testing.T) *testCLI {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/amos/amos.yaml", []byte("store:\n  backend: memory\nlog_level: none\n"), 0o644))
	return &testCLI{t: t, fs: fs, log: sharedLog{Log: memory.New()}}
}

func (c *testCLI) run(args ...string) (string, error) {
	opener := func(_ *config.Config, _ *zap.Logger) (store.Log, error) { return c.log, nil }
	root := newRootCmd(c.fs, opener)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--config", "/etc/amos/amos.yaml"}, args...))
	err := root.Execute()
	return out.String(), err
}

func (c *testCLI) mustRun(args ...string) string {
	out, err := c.run(args...)
	require.NoError(c.t, err, "amos %v", args)
	return out
}

func (c *testCLI) writeFile(path, content string) {
	require.NoError(c.t, afero.WriteFile(c.fs, path, []byte(content), 0o644))
}

func TestCommitAndSnapshot(t *testing.T) {
	cli := newTestCLI(t)
	cli.writeFile("/work/admin-en.yaml", `component: admin
language: en
branch: MOODLE_20_STABLE
strings:
  one: One
  two: Two
  three: Tree
`)

	var res commitOutput
	require.NoError(t, yaml.Unmarshal([]byte(cli.mustRun("commit", "-f", "/work/admin-en.yaml", "-m", "Initial", "--at", "2010-10-01T00:00:00Z")), &res))
	assert.NotEmpty(t, res.Commit)
	assert.Equal(t, 3, res.Records)

	cli.writeFile("/work/admin-en.yaml", `component: admin
language: en
branch: MOODLE_20_STABLE
strings:
  one: One
  three: Three
`)
	require.NoError(t, yaml.Unmarshal([]byte(cli.mustRun("commit", "-f", "/work/admin-en.yaml", "-m", "Fix", "--full", "--at", "2010-10-02T00:00:00Z")), &res))
	assert.Equal(t, 2, res.Records)

	var strs map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(cli.mustRun("snapshot", "--component", "admin", "--lang", "en", "--branch", "MOODLE_20_STABLE")), &strs))
	assert.Equal(t, map[string]string{"one": "One", "three": "Three"}, strs)

	require.NoError(t, yaml.Unmarshal([]byte(cli.mustRun("snapshot", "--component", "admin", "--lang", "en", "--branch", "MOODLE_20_STABLE", "--at", "2010-10-01T12:00:00Z")), &strs))
	assert.Equal(t, map[string]string{"one": "One", "two": "Two", "three": "Tree"}, strs)

	out := cli.mustRun("snapshot", "--component", "admin", "--lang", "en", "--branch", "MOODLE_20_STABLE", "--legacy")
	assert.Equal(t, "$string['one'] = 'One';\n$string['three'] = 'Three';\n", out)

	out = cli.mustRun("diff", "--component", "admin", "--lang", "en", "--branch", "MOODLE_20_STABLE", "--from", "2010-10-01T12:00:00Z")
	assert.Contains(t, out, "-$string['three'] = 'Tree';\n")
	assert.Contains(t, out, "+$string['three'] = 'Three';\n")
	assert.Contains(t, out, "-$string['two'] = 'Two';\n")

	out = cli.mustRun("diff", "--component", "admin", "--lang", "en", "--branch", "MOODLE_20_STABLE", "--from", "2010-10-01T12:00:00Z", "--color")
	assert.Contains(t, out, "\x1b[32m+$string['three'] = 'Three';")
	assert.Contains(t, out, " $string['one'] = 'One';\n")
}

func TestCommitErrors(t *testing.T) {
	cli := newTestCLI(t)

	_, err := cli.run("commit", "-f", "/work/missing.yaml")
	assert.Error(t, err)

	cli.writeFile("/work/bad.yaml", "component: admin\nlanguage: en\nbranch: MOODLE_2_STABLE\nstrings: {}\n")
	_, err = cli.run("commit", "-f", "/work/bad.yaml")
	assert.Error(t, err)

	cli.writeFile("/work/unknown.yaml", "component: admin\nlanguage: en\nbranch: MOODLE_20_STABLE\ntexts: {}\n")
	_, err = cli.run("commit", "-f", "/work/unknown.yaml")
	assert.Error(t, err)

	_, err = cli.run("snapshot", "--component", "admin", "--lang", "en", "--branch", "NOT_A_BRANCH")
	assert.Error(t, err)

	_, err = cli.run("snapshot", "--component", "admin", "--lang", "en")
	assert.Error(t, err)
}

func TestCommitPropagate(t *testing.T) {
	cli := newTestCLI(t)
	for _, branch := range []string{"MOODLE_20_STABLE", "MOODLE_21_STABLE"} {
		cli.writeFile("/work/en.yaml", "component: admin\nlanguage: en\nbranch: "+branch+"\nstrings:\n  foo: Bar\n")
		cli.mustRun("commit", "-f", "/work/en.yaml", "--at", "2011-01-01T00:00:00Z")
	}

	cli.writeFile("/work/cs.yaml", "component: admin\nlanguage: cs\nbranch: MOODLE_20_STABLE\nstrings:\n  foo: Bar v cestine\n")
	var res commitOutput
	require.NoError(t, yaml.Unmarshal([]byte(cli.mustRun("commit", "-f", "/work/cs.yaml", "--propagate", "MOODLE_21_STABLE")), &res))
	assert.Equal(t, 1, res.Propagated)
	assert.Equal(t, 2, res.Records)

	var strs map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(cli.mustRun("snapshot", "--component", "admin", "--lang", "cs", "--branch", "MOODLE_21_STABLE")), &strs))
	assert.Equal(t, map[string]string{"foo": "Bar v cestine"}, strs)
}

func TestListings(t *testing.T) {
	cli := newTestCLI(t)
	cli.writeFile("/work/en.yaml", "component: langconfig\nlanguage: en\nbranch: MOODLE_19_STABLE\nstrings:\n  thislanguageint: English\n")
	cli.writeFile("/work/cs.yaml", "component: langconfig\nlanguage: cs\nbranch: MOODLE_20_STABLE\nstrings:\n  thislanguageint: Czech\n")
	cli.writeFile("/work/workshop.yaml", "component: workshop\nlanguage: en\nbranch: MOODLE_20_STABLE\nstrings:\n  modulename: Workshop\n")
	for _, f := range []string{"/work/en.yaml", "/work/cs.yaml", "/work/workshop.yaml"} {
		cli.mustRun("commit", "-f", f)
	}

	var langs map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(cli.mustRun("languages")), &langs))
	assert.Equal(t, map[string]string{"en": "English", "cs": "Czech"}, langs)

	var translations map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(cli.mustRun("languages", "--no-authoring", "--show-code")), &translations))
	assert.Equal(t, map[string]string{"cs": "Czech (cs)"}, translations)

	var components []string
	require.NoError(t, yaml.Unmarshal([]byte(cli.mustRun("components")), &components))
	assert.Equal(t, []string{"langconfig", "workshop"}, components)

	var tree map[int]map[string]map[string]int
	require.NoError(t, yaml.Unmarshal([]byte(cli.mustRun("tree", "--branch", "MOODLE_20_STABLE", "--lang", "en")), &tree))
	assert.Equal(t, map[int]map[string]map[string]int{2000: {"en": {"workshop": 1}}}, tree)

	var empty map[int]map[string]map[string]int
	require.NoError(t, yaml.Unmarshal([]byte(cli.mustRun("tree", "--component", "nothing")), &empty))
	assert.Empty(t, empty)
}

func TestScript(t *testing.T) {
	cli := newTestCLI(t)
	cli.writeFile("/work/en.yaml", "component: auth\nlanguage: en\nbranch: MOODLE_20_STABLE\nstrings:\n  ldap: Use LDAP\n")
	cli.writeFile("/work/cs.yaml", "component: auth\nlanguage: cs\nbranch: MOODLE_20_STABLE\nstrings:\n  ldap: Pouzit LDAP\n")
	cli.mustRun("commit", "-f", "/work/en.yaml", "--at", "2011-01-01T00:00:00Z")
	cli.mustRun("commit", "-f", "/work/cs.yaml", "--at", "2011-01-01T00:00:00Z")

	cli.writeFile("/work/message.txt", "MDL-1 moving\nAMOS BEGIN\n MOV [ldap,core_auth],[pluginname,auth_ldap]\nAMOS END\n")
	var out scriptOutput
	require.NoError(t, yaml.Unmarshal([]byte(cli.mustRun("script", "--message-file", "/work/message.txt", "--branch", "MOODLE_20_STABLE")), &out))
	assert.Equal(t, []string{"MOV [ldap,core_auth],[pluginname,auth_ldap]"}, out.Instructions)
	require.Len(t, out.Commits, 1)
	assert.Equal(t, 2, out.Commits[0].Records)
	assert.Empty(t, out.Errors)

	var strs map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(cli.mustRun("snapshot", "--component", "auth_ldap", "--lang", "cs", "--branch", "MOODLE_20_STABLE")), &strs))
	assert.Equal(t, map[string]string{"pluginname": "Pouzit LDAP"}, strs)

	output, err := cli.run("script", "-m", "AMOS BEGIN CMD AMOS END", "--branch", "MOODLE_20_STABLE")
	require.Error(t, err)
	var malformed scriptOutput
	require.NoError(t, yaml.Unmarshal([]byte(output), &malformed))
	assert.Equal(t, []string{"CMD"}, malformed.Instructions)
	assert.Empty(t, malformed.Commits)
	assert.Len(t, malformed.Errors, 1)

	_, err = cli.run("script", "--branch", "MOODLE_20_STABLE")
	assert.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	cli := newTestCLI(t)
	cli.writeFile("/etc/amos/amos.yaml", "store:\n  backend: mongo\n")
	_, err := cli.run("components")
	assert.Error(t, err)

	cli.writeFile("/etc/amos/amos.yaml", "store:\n  backend: memory\n")
	_, err = cli.run("components", "--loglevel", "none")
	assert.NoError(t, err)

	_, err = cli.run("components", "--loglevel", "chatty")
	assert.Error(t, err)
}
