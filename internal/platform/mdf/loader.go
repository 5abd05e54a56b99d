package mdf

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SchemaLoadError reports a fatal problem with the model documents:
// a missing or malformed file, or an internal inconsistency such as a
// node listing a property that has no definition. No partial schema is
// returned alongside it; callers cannot proceed without a complete
// schema.
type SchemaLoadError struct {
	Entity   string
	Property string
	Reason   string
	Err      error
}

func (e *SchemaLoadError) Error() string {
	if e.Entity != "" && e.Property != "" {
		return fmt.Sprintf("schema load: entity %q lists property %q: %s", e.Entity, e.Property, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("schema load: %s: %v", e.Reason, e.Err)
	}
	return "schema load: " + e.Reason
}

func (e *SchemaLoadError) Unwrap() error { return e.Err }

// Option adjusts how the model documents are interpreted.
type Option func(*loadOptions)

type loadOptions struct {
	singletons []string
}

// WithSingletons declares which entities are collected once per
// submission instead of once per row. The default is Program and
// Dataset.
func WithSingletons(entities ...string) Option {
	return func(o *loadOptions) { o.singletons = entities }
}

// NewModel assembles a Model from already-built entity schemas, kept in
// the given order. Load is the usual entry point; NewModel serves the
// legacy fallback path, where no primary documents exist to parse.
func NewModel(entities []*EntitySchema, opts ...Option) *Model {
	o := loadOptions{singletons: []string{"Program", "Dataset"}}
	for _, opt := range opts {
		opt(&o)
	}
	m := &Model{
		Entities:     make(map[string]*EntitySchema, len(entities)),
		Vocabularies: make(map[string][]PermissibleValue),
		singletons:   make(map[string]bool, len(o.singletons)),
	}
	for _, s := range o.singletons {
		m.singletons[s] = true
	}
	for _, e := range entities {
		m.Entities[e.Name] = e
		m.entityOrder = append(m.entityOrder, e.Name)
	}
	return m
}

// InjectLinkages appends the synthetic linkage properties implied by
// the model's relationships. Load does this automatically; callers of
// NewModel do it once relationships are in place.
func (m *Model) InjectLinkages() error { return injectLinkages(m) }

type modelDoc struct {
	Nodes         yaml.Node `yaml:"Nodes"`
	Relationships yaml.Node `yaml:"Relationships"`
}

type nodeDef struct {
	Props []string `yaml:"Props"`
}

type relDef struct {
	Ends []struct {
		Src string `yaml:"Src"`
		Dst string `yaml:"Dst"`
	} `yaml:"Ends"`
}

type propsDoc struct {
	PropDefinitions map[string]propDef `yaml:"PropDefinitions"`
}

type propDef struct {
	Desc string   `yaml:"Desc"`
	Req  any      `yaml:"Req"`
	Key  any      `yaml:"Key"`
	Enum []string `yaml:"Enum"`
}

type termsDoc struct {
	Terms map[string]termDef `yaml:"Terms"`
}

type termDef struct {
	Code       string `yaml:"Code"`
	Definition string `yaml:"Definition"`
	Origin     string `yaml:"Origin"`
}

// Load parses the three linked model documents into a Model. modelPath
// declares nodes and relationships, propsPath defines every property
// (description, requiredness, optional enumeration), and termsPath
// carries ontology metadata for enumerated values. Any inconsistency
// between the documents yields a *SchemaLoadError.
func Load(modelPath, propsPath, termsPath string, opts ...Option) (*Model, error) {
	o := loadOptions{singletons: []string{"Program", "Dataset"}}
	for _, opt := range opts {
		opt(&o)
	}

	var model modelDoc
	if err := unmarshalFile(modelPath, &model); err != nil {
		return nil, err
	}
	var props propsDoc
	if err := unmarshalFile(propsPath, &props); err != nil {
		return nil, err
	}
	var terms termsDoc
	if err := unmarshalFile(termsPath, &terms); err != nil {
		return nil, err
	}

	m := &Model{
		Entities:     make(map[string]*EntitySchema),
		Vocabularies: make(map[string][]PermissibleValue),
		singletons:   make(map[string]bool, len(o.singletons)),
	}
	for _, s := range o.singletons {
		m.singletons[s] = true
	}

	// Nodes, kept in document order.
	err := eachMappingEntry(&model.Nodes, func(name string, val *yaml.Node) error {
		var def nodeDef
		if err := val.Decode(&def); err != nil {
			return &SchemaLoadError{Reason: fmt.Sprintf("node %q is malformed", name), Err: err}
		}
		ent := &EntitySchema{Name: name}
		for _, propName := range def.Props {
			pd, ok := props.PropDefinitions[propName]
			if !ok {
				return &SchemaLoadError{Entity: name, Property: propName, Reason: "no property definition"}
			}
			ent.Properties = append(ent.Properties, SchemaProperty{
				Name:        propName,
				Description: pd.Desc,
				Required:    flagSet(pd.Req),
				IsKey:       flagSet(pd.Key),
			})
			if len(pd.Enum) > 0 {
				m.Vocabularies[propName] = buildVocabulary(pd.Enum, terms.Terms)
			}
		}
		m.Entities[name] = ent
		m.entityOrder = append(m.entityOrder, name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Relationships, flattened to one edge per declared end pair.
	err = eachMappingEntry(&model.Relationships, func(name string, val *yaml.Node) error {
		var def relDef
		if err := val.Decode(&def); err != nil {
			return &SchemaLoadError{Reason: fmt.Sprintf("relationship %q is malformed", name), Err: err}
		}
		for _, end := range def.Ends {
			m.Relationships = append(m.Relationships, Relationship{
				Name:        name,
				Source:      end.Src,
				Destination: end.Dst,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := injectLinkages(m); err != nil {
		return nil, err
	}
	return m, nil
}

func unmarshalFile(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return &SchemaLoadError{Reason: "read " + path, Err: err}
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return &SchemaLoadError{Reason: "parse " + path, Err: err}
	}
	return nil
}

// eachMappingEntry walks a YAML mapping node in document order. An
// absent node (zero value) is treated as an empty mapping.
func eachMappingEntry(n *yaml.Node, fn func(key string, val *yaml.Node) error) error {
	if n == nil || n.Kind == 0 {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return &SchemaLoadError{Reason: fmt.Sprintf("expected a mapping at line %d", n.Line)}
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := fn(n.Content[i].Value, n.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// flagSet normalizes the boolean-or-token encodings the documents use
// for Req and Key.
func flagSet(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "yes") || strings.EqualFold(t, "true")
	default:
		return false
	}
}

func buildVocabulary(values []string, terms map[string]termDef) []PermissibleValue {
	vocab := make([]PermissibleValue, len(values))
	for i, v := range values {
		pv := PermissibleValue{Value: v}
		if t, ok := terms[v]; ok {
			pv.Code = t.Code
			pv.Definition = t.Definition
			pv.Origin = t.Origin
		}
		vocab[i] = pv
	}
	return vocab
}

// injectLinkages appends the synthetic linkage property implied by each
// relationship to its source entity, after the entity's declared
// properties. A destination without a key property yields no linkage; a
// relationship naming an unknown source entity is an inconsistency.
func injectLinkages(m *Model) error {
	for _, rel := range m.Relationships {
		dst, ok := m.Entities[rel.Destination]
		if !ok {
			continue
		}
		linkName, ok := rel.LinkageProperty(dst)
		if !ok {
			continue
		}
		src, ok := m.Entities[rel.Source]
		if !ok {
			return &SchemaLoadError{Reason: fmt.Sprintf("relationship %q references unknown entity %q", rel.Name, rel.Source)}
		}
		if src.HasProperty(linkName) {
			continue
		}
		src.Properties = append(src.Properties, SchemaProperty{
			Name:        linkName,
			Description: "Automatically injected linkage to " + rel.Destination,
			Linkage:     true,
		})
	}
	return nil
}
