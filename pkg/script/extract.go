// Package script implements the instruction sub-language embedded in commit messages.
//
// Instructions are written between the AMOS BEGIN and AMOS END markers of a free-form text:
//
//	MDL-24570 multiple sitepolicy fixes
//	AMOS BEGIN
//	 MOV [configsitepolicy,core_admin],[sitepolicy_help,core_admin]
//	 CPY [pluginname,auth_ldap],[auth_ldap,core_auth]
//	AMOS END
//
// Instructions move or copy translated strings to another key, on every language but the authoring one.
package script

import (
	"iter"
	"regexp"
	"strings"
)

var (
	blockRex      = regexp.MustCompile(`(?is)\bAMOS\s+BEGIN\b(.*?)\bAMOS\s+END\b`)
	whitespaceRex = regexp.MustCompile(`\s+`)
	verbRex       = regexp.MustCompile(`\b(?:MOV|CPY)\b`)
)

// Extract yields the instructions found in the script blocks of some text, in order.
//
// Whitespace is collapsed and instructions are split before every known verb.
// Unknown instructions are yielded as is, for Parse to reject them.
func Extract(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, block := range blockRex.FindAllStringSubmatch(text, -1) {
			body := strings.TrimSpace(whitespaceRex.ReplaceAllString(block[1], " "))
			if body == "" {
				continue
			}

			start := 0
			for _, loc := range verbRex.FindAllStringIndex(body, -1) {
				if loc[0] == start {
					continue
				}
				if instruction := strings.TrimSpace(body[start:loc[0]]); instruction != "" {
					if !yield(instruction) {
						return
					}
				}
				start = loc[0]
			}
			if instruction := strings.TrimSpace(body[start:]); instruction != "" {
				if !yield(instruction) {
					return
				}
			}
		}
	}
}
