package core

import (
	"testing"

	"github.com/oneconcern/amos/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyComponentName(t *testing.T) {
	repo, _, _ := testRepository(t)

	for _, tc := range []struct {
		name     string
		expected string
		ok       bool
	}{
		{name: "core", expected: "moodle", ok: true},
		{name: "core_grades", expected: "grades", ok: true},
		{name: "block_foobar", expected: "block_foobar", ok: true},
		{name: "mod_foobar", expected: "foobar", ok: true},
		{name: "moodle", expected: "moodle", ok: true},
		{name: "admin", expected: "admin", ok: true},
		{name: " mod_whitespace  ", expected: "whitespace", ok: true},
		{name: "[syntaxerr"},
		{name: "syntaxerr,"},
		{name: "syntax err"},
	} {
		legacy, ok := repo.LegacyComponentName(tc.name)
		assert.Equalf(t, tc.ok, ok, "for %q", tc.name)
		assert.Equalf(t, tc.expected, legacy, "for %q", tc.name)
	}

	legacy, ok := LegacyComponentName("core", "lms")
	assert.True(t, ok)
	assert.Equal(t, "lms", legacy)
}

func TestGetAffectedStrings(t *testing.T) {
	diff := []string{
		"diff --git a/lang/en/admin.php b/lang/en/admin.php",
		"index 4a2c5e1..9b7f3d0 100644",
		"--- a/lang/en/admin.php",
		"+++ b/lang/en/admin.php",
		"@@ -210,7 +210,7 @@ $string['configdebugdisplay'] = 'Set to on...';",
		" $string['configdefaultrequestcategory'] = 'Courses requested by users will be placed in this category.';",
		"-$string['configdefaultuserroleid'] = 'All logged in users will be given the capabilities of the role you specify here.';",
		"+$string['configdefaultuserroleid'] = 'All logged in users will be given the capabilities of this role.';",
		"+$string['confignodefaultuserrolelists'] = 'This setting prevents all users from being returned.';",
		"-$string[\"nodefaultuserrolelists\"] = 'Don\\'t return all default role users';",
		"+ $string['nolangupdateneeded'] = 'All your language packs are up to date';",
		"+$string['mod/something:really_nasty-like0098187.this'] = 'Nasty';",
		"+// $string['commented'] = 'Not a string';",
		" $string['unchanged'] = 'Context line';",
	}

	affected := GetAffectedStrings(diff)
	assert.Equal(t, []string{
		"configdefaultuserroleid",
		"confignodefaultuserrolelists",
		"mod/something:really_nasty-like0098187.this",
		"nodefaultuserrolelists",
		"nolangupdateneeded",
	}, affected)

	assert.Empty(t, GetAffectedStrings(nil))
}

func TestUnifiedDiff(t *testing.T) {
	before := set("admin", "cs", v20,
		model.NewString("one", "Jedna"),
		model.NewString("three", "Tri"),
		model.NewString("two", "Dva"),
	)
	after := set("admin", "cs", v20,
		model.NewString("one", "Jedna"),
		model.NewString("three", "Tři"),
		model.NewString("two", "Dva", model.AsDeleted()),
		model.NewString("zero", "It's nothing"),
	)

	lines, err := UnifiedDiff(before, after)
	require.NoError(t, err)
	require.NotEmpty(t, lines)
	assert.Equal(t, "--- admin/cs@2000", lines[0])
	assert.Equal(t, "+++ admin/cs@2000", lines[1])
	assert.Contains(t, lines, "-$string['three'] = 'Tri';")
	assert.Contains(t, lines, "+$string['three'] = 'Tři';")
	assert.Contains(t, lines, "-$string['two'] = 'Dva';")
	assert.Contains(t, lines, `+$string['zero'] = 'It\'s nothing';`)

	assert.Equal(t, []string{"three", "two", "zero"}, GetAffectedStrings(lines))

	lines, err = UnifiedDiff(before, before.Clone())
	require.NoError(t, err)
	assert.Empty(t, lines)

	lines, err = UnifiedDiff(nil, after)
	require.NoError(t, err)
	assert.Equal(t, "--- a", lines[0])
}
