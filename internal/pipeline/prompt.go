package pipeline

import (
	"fmt"
	"strings"

	"github.com/Ferdagulay/apps-challenge/internal/caption"
)

// ComposePrompt merges the user instruction with the caption into the
// generation prompt. Pure and deterministic; no I/O.
//
// Direct-edit passes the instruction through unchanged. The basic variant
// appends the caption as a style reference. The enhanced variant adds strict
// quantity and style clauses; when either field is absent the clause is
// dropped instead of interpolating a zero value, so the prompt stays
// well-formed.
func ComposePrompt(instruction string, c *caption.Caption, v Variant) string {
	switch v {
	case VariantBasic:
		text := ""
		if c != nil {
			text = c.Text
		}
		return fmt.Sprintf("%s, render in the exact same illustration style and details as described: %s", instruction, text)
	case VariantEnhanced:
		sb := &strings.Builder{}
		sb.WriteString(instruction)
		sb.WriteString(".")
		if c != nil {
			switch {
			case c.Quantity != nil && c.DrawingStyle != "":
				fmt.Fprintf(sb, " Strictly draw %d in %s style.", *c.Quantity, c.DrawingStyle)
			case c.Quantity != nil:
				fmt.Fprintf(sb, " Strictly draw %d.", *c.Quantity)
			case c.DrawingStyle != "":
				fmt.Fprintf(sb, " Strictly render in %s style.", c.DrawingStyle)
			}
			fmt.Fprintf(sb, " Ensure all of them follow this description: %s.", c.Text)
		}
		return sb.String()
	default:
		return instruction
	}
}
