package script

import (
	"regexp"
	"strings"

	"github.com/oneconcern/amos/pkg/core"
	"github.com/oneconcern/amos/pkg/script/status"
)

// Verb of an instruction
type Verb string

// Supported verbs
const (
	// Move translations to another key, deleting the former key
	Move Verb = "MOV"
	// Copy translations to another key
	Copy Verb = "CPY"
)

var (
	instructionRex = regexp.MustCompile(`(?s)^([A-Z]+)\s*(.*)$`)
	operandRex     = regexp.MustCompile(`^\[([^\[\],]*),([^\[\],]*)\]`)
	separatorRex   = regexp.MustCompile(`^\s*,\s*`)
)

// Operand of an instruction: a string id in a component
type Operand struct {
	StringID  string
	Component string
}

// Instruction parsed from a script
type Instruction struct {
	Verb     Verb
	Operands []Operand
	Text     string
}

// Source operand
func (i Instruction) Source() Operand {
	return i.Operands[0]
}

// Target operand
func (i Instruction) Target() Operand {
	return i.Operands[1]
}

func (i Instruction) String() string {
	return i.Text
}

// Parse an instruction such as "MOV [oldid,core_admin],[newid,core_admin]".
//
// Components are checked to be valid names, but are kept as written.
func Parse(text string) (Instruction, error) {
	text = strings.TrimSpace(text)
	m := instructionRex.FindStringSubmatch(text)
	if m == nil {
		return Instruction{}, status.ErrMalformedScript.Wrapf("%q", text)
	}

	instruction := Instruction{Verb: Verb(m[1]), Text: text}
	switch instruction.Verb {
	case Move, Copy:
	default:
		return Instruction{}, status.ErrMalformedScript.Wrapf("%q: unknown verb %s", text, m[1])
	}

	rest := strings.TrimSpace(m[2])
	for rest != "" {
		if len(instruction.Operands) > 0 {
			sep := separatorRex.FindString(rest)
			if sep == "" {
				return Instruction{}, status.ErrMalformedScript.Wrapf("%q: expected a comma before %q", text, rest)
			}
			rest = rest[len(sep):]
		}

		om := operandRex.FindStringSubmatch(rest)
		if om == nil {
			return Instruction{}, status.ErrMalformedScript.Wrapf("%q: malformed operand %q", text, rest)
		}
		operand := Operand{StringID: strings.TrimSpace(om[1]), Component: strings.TrimSpace(om[2])}
		if operand.StringID == "" {
			return Instruction{}, status.ErrMalformedScript.Wrapf("%q: empty string id", text)
		}
		if _, ok := core.LegacyComponentName(operand.Component, ""); !ok {
			return Instruction{}, status.ErrMalformedScript.Wrapf("%q: invalid component %q", text, operand.Component)
		}
		instruction.Operands = append(instruction.Operands, operand)
		rest = strings.TrimSpace(rest[len(om[0]):])
	}

	if len(instruction.Operands) != 2 {
		return Instruction{}, status.ErrMalformedScript.Wrapf("%q: %s expects 2 operands, got %d", text, instruction.Verb, len(instruction.Operands))
	}
	return instruction, nil
}
