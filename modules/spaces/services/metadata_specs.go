package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/domain"
	"github.com/sergiofbsilva/fenixedu-spaces-migration/pkg/intl"
)

// MetadataSpecCatalog holds the spec set of each space type, keyed by type name.
type MetadataSpecCatalog map[string][]domain.MetadataSpec

func label(pt, en string) intl.LocalizedString {
	return intl.NewLocalizedString().With(intl.PT, pt).With(intl.EN, en)
}

func qualitySpec(key, pt, en string) domain.MetadataSpec {
	return domain.MetadataSpec{Key: key, Label: label(pt, en), Kind: domain.ValueBoolean, Required: true, Default: "false"}
}

func DefaultMetadataSpecs() MetadataSpecCatalog {
	return MetadataSpecCatalog{
		string(domain.SpaceTypeRoom): {
			qualitySpec(MetaAgeQuality, "Qualidade em idade", "Age Quality"),
			qualitySpec(MetaDistanceFromSanitaryInstalationsQuality, "Qualidade na distância às instalações sanitárias", "Distance From Sanitary Instalations Quality"),
			qualitySpec(MetaHeightQuality, "Qualidade em altura", "Height Quality"),
			qualitySpec(MetaIlluminationQuality, "Qualidade em iluminação", "Illumination Quality"),
			qualitySpec(MetaSecurityQuality, "Qualidade em segurança", "Security Quality"),
			{Key: MetaDoorNumber, Label: label("Número Porta", "Door Number"), Kind: domain.ValueString, Required: false, Default: ""},
		},
		string(domain.SpaceTypeFloor): {
			{Key: "level", Label: label("Piso", "Level"), Kind: domain.ValueInteger, Required: true, Default: "0"},
		},
	}
}

// For returns a private copy of the spec set of typeName, empty when unknown.
func (c MetadataSpecCatalog) For(typeName string) []domain.MetadataSpec {
	return domain.CloneSpecs(c[typeName])
}

func (c MetadataSpecCatalog) Types() []string {
	out := make([]string, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ParseMetadataSpecs reads a YAML catalog. Types it names replace the built-in set.
func ParseMetadataSpecs(data []byte) (MetadataSpecCatalog, error) {
	var override MetadataSpecCatalog
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, errors.Wrap(err, "parse metadata specs")
	}
	return mergeMetadataSpecs(override)
}

// ParseMetadataSpecsTOML is ParseMetadataSpecs for a TOML catalog, one array
// of tables per type.
func ParseMetadataSpecsTOML(data []byte) (MetadataSpecCatalog, error) {
	var override MetadataSpecCatalog
	if err := toml.Unmarshal(data, &override); err != nil {
		return nil, errors.Wrap(err, "parse metadata specs")
	}
	return mergeMetadataSpecs(override)
}

func mergeMetadataSpecs(override MetadataSpecCatalog) (MetadataSpecCatalog, error) {
	catalog := DefaultMetadataSpecs()
	for typeName, specs := range override {
		if _, err := domain.ParseSpaceType(typeName); err != nil {
			return nil, errors.Wrapf(err, "metadata specs")
		}
		seen := map[string]struct{}{}
		for i, spec := range specs {
			if spec.Key == "" {
				return nil, fmt.Errorf("metadata specs %s[%d]: key is required", typeName, i)
			}
			if !spec.Kind.Valid() {
				return nil, fmt.Errorf("metadata specs %s.%s: invalid kind %q (expected boolean|integer|string)", typeName, spec.Key, spec.Kind)
			}
			if _, dup := seen[spec.Key]; dup {
				return nil, fmt.Errorf("metadata specs %s: duplicate key %s", typeName, spec.Key)
			}
			seen[spec.Key] = struct{}{}
		}
		catalog[typeName] = specs
	}
	return catalog, nil
}

// LoadMetadataSpecs returns the built-in catalog when path is empty. Files
// ending in .toml are read as TOML, anything else as YAML.
func LoadMetadataSpecs(path string) (MetadataSpecCatalog, error) {
	if path == "" {
		return DefaultMetadataSpecs(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read metadata specs %s", path)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseMetadataSpecsTOML(data)
	}
	return ParseMetadataSpecs(data)
}
