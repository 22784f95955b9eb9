package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ritsnep/HimalytixNew-sub007/internal/core/domain"
	"gopkg.in/yaml.v3"
)

var sectionKeys = map[string]domain.Section{
	"header":        domain.SectionHeader,
	"header_fields": domain.SectionHeader,
	"lines":         domain.SectionLines,
	"line_fields":   domain.SectionLines,
}

var typeAliases = map[string]domain.FieldType{
	"char":       domain.FieldChar,
	"string":     domain.FieldChar,
	"text":       domain.FieldChar,
	"decimal":    domain.FieldDecimal,
	"number":     domain.FieldDecimal,
	"amount":     domain.FieldDecimal,
	"date":       domain.FieldDate,
	"boolean":    domain.FieldBoolean,
	"bool":       domain.FieldBoolean,
	"checkbox":   domain.FieldBoolean,
	"choice":     domain.FieldChoice,
	"select":     domain.FieldChoice,
	"fk":         domain.FieldFK,
	"foreignkey": domain.FieldFK,
	"reference":  domain.FieldFK,
}

// rawField mirrors one field as written in a definition. Pointer members
// distinguish "absent" from the zero value.
type rawField struct {
	Name          string    `yaml:"name"`
	Label         string    `yaml:"label"`
	Type          string    `yaml:"type"`
	Required      bool      `yaml:"required"`
	Visible       *bool     `yaml:"visible"`
	Hidden        bool      `yaml:"hidden"`
	Order         int       `yaml:"order"`
	Widget        string    `yaml:"widget"`
	HelpText      string    `yaml:"help_text"`
	Default       any       `yaml:"default"`
	MaxLength     int       `yaml:"max_length"`
	MaxDigits     int       `yaml:"max_digits"`
	DecimalPlaces int       `yaml:"decimal_places"`
	Choices       yaml.Node `yaml:"choices"`
	Target        string    `yaml:"target"`
}

// Parse decodes a JSON or YAML schema definition. Both formats go through a
// yaml node tree so mapping order survives and becomes field order.
func Parse(raw []byte) (Schema, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Schema{}, errors.New("empty schema definition")
	}
	// JSON is a YAML subset except for tab indentation; compacting strips it.
	if raw[0] == '{' || raw[0] == '[' {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return Schema{}, fmt.Errorf("invalid JSON schema: %w", err)
		}
		raw = buf.Bytes()
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Schema{}, fmt.Errorf("invalid schema: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return Schema{}, errors.New("schema document is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return Schema{}, errors.New("schema root must be a mapping")
	}

	var out Schema
	seen := map[domain.Section]string{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := strings.ToLower(root.Content[i].Value)
		section, ok := sectionKeys[key]
		if !ok {
			continue
		}
		if prev, dup := seen[section]; dup {
			return Schema{}, fmt.Errorf("section %s given twice (%s and %s)", section, prev, key)
		}
		seen[section] = key

		fields, err := parseSection(root.Content[i+1])
		if err != nil {
			return Schema{}, fmt.Errorf("%s: %w", key, err)
		}
		if err := checkDuplicates(section, fields); err != nil {
			return Schema{}, err
		}
		if section == domain.SectionHeader {
			out.Header = fields
		} else {
			out.Lines = fields
		}
	}
	if out.IsEmpty() {
		return Schema{}, errors.New("schema declares no header or line fields")
	}
	return out, nil
}

func parseSection(node *yaml.Node) ([]domain.FieldSpec, error) {
	var fields []domain.FieldSpec
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			f, err := parseField(node.Content[i+1], node.Content[i].Value)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
	case yaml.SequenceNode:
		for _, item := range node.Content {
			f, err := parseField(item, "")
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
		return nil, fmt.Errorf("section must be a mapping or a list, got %q", node.Value)
	default:
		return nil, errors.New("section must be a mapping or a list")
	}

	for i := range fields {
		if fields[i].Order == 0 {
			fields[i].Order = i + 1
		}
	}
	return fields, nil
}

func parseField(node *yaml.Node, key string) (domain.FieldSpec, error) {
	var rf rawField
	switch node.Kind {
	case yaml.MappingNode:
		if err := node.Decode(&rf); err != nil {
			return domain.FieldSpec{}, fmt.Errorf("field %q: %w", key, err)
		}
	case yaml.ScalarNode:
		// shorthand: `reference: char`
		rf.Type = node.Value
	default:
		return domain.FieldSpec{}, fmt.Errorf("field %q must be a mapping", key)
	}
	if rf.Name == "" {
		rf.Name = key
	}
	if rf.Name == "" {
		return domain.FieldSpec{}, errors.New("field without a name")
	}

	ft := domain.FieldChar
	if rf.Type != "" {
		t, ok := typeAliases[strings.ToLower(rf.Type)]
		if !ok {
			return domain.FieldSpec{}, fmt.Errorf("field %q: unknown type %q", rf.Name, rf.Type)
		}
		ft = t
	}

	visible := !rf.Hidden
	if rf.Visible != nil {
		visible = *rf.Visible
	}
	label := rf.Label
	if label == "" {
		label = humanize(rf.Name)
	}

	choices, err := parseChoices(&rf.Choices)
	if err != nil {
		return domain.FieldSpec{}, fmt.Errorf("field %q: %w", rf.Name, err)
	}
	if ft == domain.FieldChoice && len(choices) == 0 {
		return domain.FieldSpec{}, fmt.Errorf("field %q: choice field without choices", rf.Name)
	}
	target := rf.Target
	if ft == domain.FieldFK && target == "" {
		target = rf.Name
	}

	return domain.FieldSpec{
		Name:          rf.Name,
		Label:         label,
		Type:          ft,
		Required:      rf.Required,
		Visible:       visible,
		Order:         rf.Order,
		Widget:        rf.Widget,
		HelpText:      rf.HelpText,
		Default:       rf.Default,
		MaxLength:     rf.MaxLength,
		MaxDigits:     rf.MaxDigits,
		DecimalPlaces: rf.DecimalPlaces,
		Choices:       choices,
		Target:        target,
	}, nil
}

// parseChoices accepts `[a, b]`, `[[a, "A"], ...]` and `[{value: a, label: A}]`.
func parseChoices(node *yaml.Node) ([]domain.Choice, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, errors.New("choices must be a list")
	}
	out := make([]domain.Choice, 0, len(node.Content))
	for _, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			out = append(out, domain.Choice{Value: item.Value, Label: item.Value})
		case yaml.SequenceNode:
			if len(item.Content) != 2 {
				return nil, errors.New("choice pair must have two elements")
			}
			out = append(out, domain.Choice{Value: item.Content[0].Value, Label: item.Content[1].Value})
		case yaml.MappingNode:
			var c domain.Choice
			if err := item.Decode(&c); err != nil {
				return nil, err
			}
			if c.Label == "" {
				c.Label = c.Value
			}
			out = append(out, c)
		default:
			return nil, errors.New("unsupported choice entry")
		}
	}
	return out, nil
}

func humanize(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
