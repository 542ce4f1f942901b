package core

import (
	"regexp"
	"sort"
	"strings"

	"github.com/oneconcern/amos/pkg/model"
	"github.com/pmezard/go-difflib/difflib"
)

var (
	componentNameRex = regexp.MustCompile(`^[-_a-z0-9]+$`)
	affectedRex      = regexp.MustCompile(`^[+-]\s*\$string\[(['"])(.+?)['"]\]\s*=`)
	legacyEscaper    = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)
)

// LegacyComponentName converts a structured component name into its legacy flat form.
//
// The core component maps to baseName, core sub-systems and activity modules lose their prefix
// ("core_grades" is "grades", "mod_forum" is "forum"). Other names are left unchanged.
// Malformed names are reported with false.
func LegacyComponentName(name, baseName string) (string, bool) {
	name = strings.TrimSpace(name)
	if !componentNameRex.MatchString(name) {
		return "", false
	}

	switch {
	case name == "core":
		return baseName, true
	case strings.HasPrefix(name, "core_"):
		return strings.TrimPrefix(name, "core_"), true
	case strings.HasPrefix(name, "mod_"):
		return strings.TrimPrefix(name, "mod_"), true
	default:
		return name, true
	}
}

// LegacyComponentName converts a structured component name into its legacy form, using the repository base name
func (r *Repository) LegacyComponentName(name string) (string, bool) {
	return LegacyComponentName(name, r.settings.baseName)
}

// GetAffectedStrings scans the lines of a unified diff of string files and
// returns the sorted ids of the strings added, changed or removed.
func GetAffectedStrings(lines []string) []string {
	seen := make(map[string]struct{})
	affected := make([]string, 0)
	for _, line := range lines {
		m := affectedRex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		id := m[2]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		affected = append(affected, id)
	}
	sort.Strings(affected)
	return affected
}

// RenderLegacy renders the strings of a set as assignments in the legacy string file syntax,
// one line per string, sorted by string id.
func RenderLegacy(set *model.StringSet) []string {
	if set == nil {
		return []string{}
	}
	lines := make([]string, 0, set.Len())
	for _, s := range set.Strings() {
		if s.Deleted {
			continue
		}
		lines = append(lines, "$string['"+s.ID+"'] = '"+legacyEscaper.Replace(s.Text)+"';\n")
	}
	return lines
}

// UnifiedDiff renders the differences between two versions of a string set as unified diff lines.
//
// Either set may be nil, to stand for an empty set.
func UnifiedDiff(before, after *model.StringSet) ([]string, error) {
	from, to := "a", "b"
	if before != nil {
		from = before.Key().String()
	}
	if after != nil {
		to = after.Key().String()
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        RenderLegacy(before),
		B:        RenderLegacy(after),
		FromFile: from,
		ToFile:   to,
		Context:  1,
	})
	if err != nil {
		return nil, err
	}
	if diff == "" {
		return []string{}, nil
	}
	return strings.Split(strings.TrimSuffix(diff, "\n"), "\n"), nil
}
