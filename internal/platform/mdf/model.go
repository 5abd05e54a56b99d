// Package mdf loads a model-description-format document set (nodes,
// property definitions, term definitions) into the typed schema the
// standardization pipeline runs against: entities with ordered
// properties, per-property permissible-value vocabularies, and the
// relationship graph between entities.
package mdf

import "strings"

// SchemaProperty is one field of one entity type. Immutable once loaded.
type SchemaProperty struct {
	Name        string
	Description string
	Required    bool
	// IsKey marks the property that identifies an instance of its
	// entity; relationship linkage columns point at it.
	IsKey bool
	// Linkage marks a synthetic property injected from a declared
	// relationship rather than listed in the node's own definition.
	Linkage bool
}

// EntitySchema is a named collection of properties in declared order.
// The order is significant: it fixes output column order.
type EntitySchema struct {
	Name       string
	Properties []SchemaProperty
}

// Property returns the named property, if declared.
func (e *EntitySchema) Property(name string) (SchemaProperty, bool) {
	for _, p := range e.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return SchemaProperty{}, false
}

// HasProperty reports whether name is declared on this entity.
func (e *EntitySchema) HasProperty(name string) bool {
	_, ok := e.Property(name)
	return ok
}

// PropertyNames returns the property names in declared order.
func (e *EntitySchema) PropertyNames() []string {
	out := make([]string, len(e.Properties))
	for i, p := range e.Properties {
		out[i] = p.Name
	}
	return out
}

// KeyProperty returns the entity's identifying property: the first
// property flagged as a key, in declared order.
func (e *EntitySchema) KeyProperty() (SchemaProperty, bool) {
	for _, p := range e.Properties {
		if p.IsKey {
			return p, true
		}
	}
	return SchemaProperty{}, false
}

// PermissibleValue is one allowed value for an enumerated property,
// optionally annotated with external ontology metadata.
type PermissibleValue struct {
	Value      string
	Code       string
	Definition string
	Origin     string
}

// Relationship is a named edge between two entities. Every relationship
// implies a linkage property injected into the source entity, named
// after the destination entity and its key property.
type Relationship struct {
	Name        string
	Source      string
	Destination string
}

// LinkageProperty returns the name of the column a source-entity table
// must carry to reference an instance of the destination entity, and
// false when the destination has no key property to point at.
func (r Relationship) LinkageProperty(destination *EntitySchema) (string, bool) {
	if destination == nil {
		return "", false
	}
	key, ok := destination.KeyProperty()
	if !ok {
		return "", false
	}
	return strings.ToLower(r.Destination) + "." + key.Name, true
}

// Model is the loaded schema bundle. It is built once at startup and
// read-only afterwards, so it is safe to share across goroutines.
type Model struct {
	Entities      map[string]*EntitySchema
	Vocabularies  map[string][]PermissibleValue
	Relationships []Relationship

	entityOrder []string
	singletons  map[string]bool
}

// Entity returns the named entity schema, if declared.
func (m *Model) Entity(name string) (*EntitySchema, bool) {
	e, ok := m.Entities[name]
	return e, ok
}

// EntityNames returns entity names in document order.
func (m *Model) EntityNames() []string {
	return append([]string(nil), m.entityOrder...)
}

// Vocabulary returns the permissible values for a property, or nil for
// free-text and numeric properties.
func (m *Model) Vocabulary(property string) []PermissibleValue {
	return m.Vocabularies[property]
}

// IsSingleton reports whether the entity is collected once per
// submission rather than once per row, letting linkage to it be
// resolved without a per-row column.
func (m *Model) IsSingleton(entity string) bool {
	return m.singletons[entity]
}

// MappableProperties returns every dotted entity.property name a source
// column may be mapped onto, in schema order. Identifier properties
// (name ending in "_id") are excluded: identifiers are assigned by the
// archive, not carried in by submitters.
func (m *Model) MappableProperties() []string {
	var out []string
	for _, name := range m.entityOrder {
		ent := m.Entities[name]
		for _, p := range ent.Properties {
			if strings.HasSuffix(p.Name, "_id") {
				continue
			}
			out = append(out, name+"."+p.Name)
		}
	}
	return out
}
