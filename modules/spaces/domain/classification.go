package domain

import (
	"fmt"
	"strings"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/pkg/intl"
)

type ValueKind string

const (
	ValueBoolean ValueKind = "boolean"
	ValueInteger ValueKind = "integer"
	ValueString  ValueKind = "string"
)

func (k ValueKind) Valid() bool {
	switch k {
	case ValueBoolean, ValueInteger, ValueString:
		return true
	}
	return false
}

// MetadataSpec describes one metadata key an information of a classification may carry.
type MetadataSpec struct {
	Key      string               `json:"key" yaml:"key" toml:"key"`
	Label    intl.LocalizedString `json:"label" yaml:"label" toml:"label"`
	Kind     ValueKind            `json:"kind" yaml:"kind" toml:"kind"`
	Required bool                 `json:"required" yaml:"required" toml:"required"`
	Default  string               `json:"default" yaml:"default" toml:"default"`
}

// Classification is a node of the space classification tree.
type Classification struct {
	ID            string               `json:"id"`
	Code          string               `json:"code"`
	AbsoluteCode  string               `json:"absolute_code"`
	Name          intl.LocalizedString `json:"name"`
	ParentID      string               `json:"parent_id,omitempty"`
	MetadataSpecs []MetadataSpec       `json:"metadata_specs"`
}

func (c Classification) IsRoot() bool {
	return c.ParentID == ""
}

func (c Classification) MetadataSpec(key string) (MetadataSpec, bool) {
	for _, spec := range c.MetadataSpecs {
		if spec.Key == key {
			return spec, true
		}
	}
	return MetadataSpec{}, false
}

// JoinCode builds the absolute code of a child from its parent's absolute code.
func JoinCode(parentAbsolute, code string) string {
	if parentAbsolute == "" {
		return code
	}
	return parentAbsolute + "." + code
}

// NormalizeCode drops one leading zero from every dotted segment: "03.06" -> "3.6".
// A bare "0" segment is kept.
func NormalizeCode(code string) string {
	parts := strings.Split(strings.TrimSpace(code), ".")
	for i, part := range parts {
		if len(part) > 1 {
			parts[i] = strings.TrimPrefix(part, "0")
		}
	}
	return strings.Join(parts, ".")
}

func ValidateCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("classification code is required")
	}
	if strings.Contains(code, ".") {
		return fmt.Errorf("classification code %q must be a single segment", code)
	}
	return nil
}

// CloneSpecs copies a spec set so classifications never share a backing array.
func CloneSpecs(specs []MetadataSpec) []MetadataSpec {
	out := make([]MetadataSpec, len(specs))
	copy(out, specs)
	return out
}
