package model

import (
	"regexp"
	"strings"

	"github.com/oneconcern/amos/pkg/model/status"
)

// syntaxRule describes how a text is normalized when converted from one legacy format into another
type syntaxRule struct {
	maxNewlines      int
	collapsePercent  bool
	doublePercent    bool
	escapeVariables  bool
	escapeQuotes     bool
	unescapeQuotes   bool
	stripBackslashes bool
	wrapPlaceholders bool
	decodeDollar     bool
}

type conversion struct {
	to, from Format
}

var syntaxRules = map[conversion]syntaxRule{
	{to: FormatCurrent, from: FormatCurrent}: {
		maxNewlines:    3,
		unescapeQuotes: true,
	},
	{to: FormatCurrent, from: FormatLegacy}: {
		maxNewlines:      3,
		collapsePercent:  true,
		stripBackslashes: true,
		wrapPlaceholders: true,
		decodeDollar:     true,
	},
	{to: FormatLegacy, from: FormatLegacy}: {
		maxNewlines:     2,
		collapsePercent: true,
		doublePercent:   true,
		escapeVariables: true,
		escapeQuotes:    true,
	},
}

const (
	trimmed          = " \t\n\r\x00\x0B"
	protectedDollar  = "\uE000"
	escapedDollar    = `\$`
	encodedDollarRef = "&#36;"
)

var (
	newlines = strings.NewReplacer(
		"\r\n", "\n",
		"\n\r", "\n",
		"\r", "\n",
		"\x0B", "\n",
		"\x0C", "\n",
		"\x17", "\n",
		"\x19", "\n",
		"\x1A", "\n",
	)
	quotesUnescaper = strings.NewReplacer(`\"`, `"`, `\'`, `'`)
	percentRex      = regexp.MustCompile(`%+`)
	placeholderRex  = regexp.MustCompile(`(^|[^{])\$a\b(->[a-zA-Z0-9_]+)?`)
	emptyLinesRex   = map[int]*regexp.Regexp{
		2: regexp.MustCompile(`\n{3,}`),
		3: regexp.MustCompile(`\n{4,}`),
	}
)

// FixSyntax normalizes a text for the target legacy format, given the format it was written for.
//
// Converting a current text into the legacy format is not supported.
func FixSyntax(text string, format, from Format) (string, error) {
	rule, ok := syntaxRules[conversion{to: format, from: from}]
	if !ok {
		return "", status.ErrUnknownConversion.Wrapf("from format %d to format %d", from, format)
	}

	text = newlines.Replace(strings.Trim(text, trimmed))
	text = emptyLinesRex[rule.maxNewlines].ReplaceAllString(text, strings.Repeat("\n", rule.maxNewlines))

	if rule.collapsePercent {
		text = percentRex.ReplaceAllString(text, "%")
	}
	if rule.doublePercent {
		text = strings.ReplaceAll(text, "%", "%%")
	}
	if rule.unescapeQuotes {
		text = quotesUnescaper.Replace(text)
	}
	if rule.stripBackslashes {
		text = strings.ReplaceAll(text, escapedDollar, protectedDollar)
		text = strings.ReplaceAll(text, `\`, "")
	}
	if rule.wrapPlaceholders {
		text = placeholderRex.ReplaceAllString(text, "${1}{$$a${2}}")
	}
	if rule.stripBackslashes {
		text = strings.ReplaceAll(text, protectedDollar, "$")
	}
	if rule.decodeDollar {
		text = strings.ReplaceAll(text, encodedDollarRef, "$")
	}
	if rule.escapeVariables {
		text = escapeUnescaped(text, '$', isPlaceholder)
	}
	if rule.escapeQuotes {
		text = escapeUnescaped(text, '"', nil)
	}

	return text, nil
}

// escapeUnescaped prefixes with a backslash every occurrence of c not already escaped,
// unless keep reports that the remainder of the text starting at c must be left as is.
func escapeUnescaped(text string, c byte, keep func(string) bool) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		if text[i] == c && (i == 0 || text[i-1] != '\\') && (keep == nil || !keep(text[i:])) {
			b.WriteByte('\\')
		}
		b.WriteByte(text[i])
	}
	return b.String()
}

// isPlaceholder tells if a text starting with $ begins with the $a placeholder
func isPlaceholder(s string) bool {
	if len(s) < 2 || s[1] != 'a' {
		return false
	}
	return len(s) == 2 || !isWordChar(s[2])
}

func isWordChar(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
