package script

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	for _, tc := range []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name: "no script",
			text: "This is text with no AMOS script",
		},
		{
			name:     "one liner",
			text:     "MDL-12345 Some message AMOS   BEGIN  MOV   [a,  b],[c,d] CPY [e,f], [g ,h]  AMOS\tEND BEGIN ignore AMOS   ",
			expected: []string{"MOV [a, b],[c,d]", "CPY [e,f], [g ,h]"},
		},
		{
			name: "multiline",
			text: `This is a typical usage of AMOS script in a commit message
                    AMOS BEGIN
                     MOV a,b  
                     CPY  c,d
                    AMOS END
                   Here it can continue`,
			expected: []string{"MOV a,b", "CPY c,d"},
		},
		{
			name:     "no empty line after the subject",
			text:     "Blah blah blah AMOS   BEGIN  CMD AMOS END blah blah",
			expected: []string{"CMD"},
		},
		{
			name:     "several blocks",
			text:     "AMOS BEGIN MOV [a,b],[c,d] AMOS END and later amos begin CPY [e,f],[g,h] amos end",
			expected: []string{"MOV [a,b],[c,d]", "CPY [e,f],[g,h]"},
		},
		{
			name:     "unknown leading instruction",
			text:     "AMOS BEGIN FOO bar MOV [a,b],[c,d] AMOS END",
			expected: []string{"FOO bar", "MOV [a,b],[c,d]"},
		},
		{
			name:     "empty block before a script",
			text:     "AMOS BEGIN\nAMOS END\nfix typo\nAMOS BEGIN\n MOV [a,b],[c,d]\nAMOS END",
			expected: []string{"MOV [a,b],[c,d]"},
		},
		{
			name: "empty block only",
			text: "AMOS BEGIN AMOS END",
		},
		{
			name: "unterminated block",
			text: "AMOS BEGIN MOV [a,b],[c,d]",
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, slices.Collect(Extract(tc.text)))
		})
	}
}

func TestExtractStopsEarly(t *testing.T) {
	var seen []string
	for instruction := range Extract("AMOS BEGIN MOV [a,b],[c,d] CPY [e,f],[g,h] AMOS END") {
		seen = append(seen, instruction)
		break
	}
	assert.Equal(t, []string{"MOV [a,b],[c,d]"}, seen)
}
