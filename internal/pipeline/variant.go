package pipeline

import (
	"fmt"
	"strings"

	"github.com/Ferdagulay/apps-challenge/internal/caption"
)

// Variant selects one of the three pipeline flavors.
type Variant string

const (
	// VariantDirectEdit sends the image and instruction to the edit
	// service in a single call; no captioning stage.
	VariantDirectEdit Variant = "direct-edit"
	// VariantBasic captions with the basic schema, then generates.
	VariantBasic Variant = "basic"
	// VariantEnhanced captions with the style/quantity/background schema,
	// then generates.
	VariantEnhanced Variant = "enhanced"
)

// ParseVariant normalizes free-form input into a Variant. Empty input
// defaults to the basic two-stage flow.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return VariantBasic, nil
	case string(VariantDirectEdit), "direct", "edit":
		return VariantDirectEdit, nil
	case string(VariantBasic):
		return VariantBasic, nil
	case string(VariantEnhanced):
		return VariantEnhanced, nil
	}
	return "", fmt.Errorf("unsupported variant %q", s)
}

// Schema maps the variant to its captioning schema. Only meaningful for the
// two-stage variants.
func (v Variant) Schema() caption.Schema {
	if v == VariantEnhanced {
		return caption.SchemaEnhanced
	}
	return caption.SchemaBasic
}
