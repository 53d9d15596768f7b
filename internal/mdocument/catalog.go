package mdocument

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Catalog is the template seed file:
//
//	[[template]]
//	name = "Meeting minutes"
//	type = "Minutes"
//	file_path = "/files/templates/minutes.docx"
type Catalog struct {
	Templates []TemplateRequest `toml:"template"`
}

func ParseCatalog(b []byte) ([]TemplateRequest, error) {
	var cat Catalog
	if err := toml.Unmarshal(b, &cat); err != nil {
		return nil, fmt.Errorf("parse template catalog: %w", err)
	}

	for i, t := range cat.Templates {
		if t.Name == "" {
			return nil, fmt.Errorf("template catalog entry %d has no name", i+1)
		}
		switch t.Type {
		case "", TypeReport, TypeProposal, TypeMinutes, TypeBudget, TypePresentation, TypeOther:
		default:
			return nil, fmt.Errorf("template %q has unknown type %q", t.Name, t.Type)
		}
	}
	return cat.Templates, nil
}

func LoadCatalog(path string) ([]TemplateRequest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(b)
}
