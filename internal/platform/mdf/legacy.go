package mdf

import (
	"encoding/json"
	"os"
)

// LoadLegacyVocabularies reads the flat fallback document that maps
// property names to plain permissible-value lists. It predates the
// structured model documents and carries no ontology metadata.
func LoadLegacyVocabularies(path string) (map[string][]PermissibleValue, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &SchemaLoadError{Reason: "read " + path, Err: err}
	}
	var flat map[string][]string
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, &SchemaLoadError{Reason: "parse " + path, Err: err}
	}
	out := make(map[string][]PermissibleValue, len(flat))
	for name, values := range flat {
		vocab := make([]PermissibleValue, len(values))
		for i, v := range values {
			vocab[i] = PermissibleValue{Value: v}
		}
		out[name] = vocab
	}
	return out, nil
}

// MergeVocabularies folds fallback vocabularies into the model.
// Properties already present keep their parsed values; only properties
// absent from the model are added. Call during startup, before the
// model is shared.
func (m *Model) MergeVocabularies(fallback map[string][]PermissibleValue) {
	for name, vocab := range fallback {
		if _, ok := m.Vocabularies[name]; ok {
			continue
		}
		m.Vocabularies[name] = vocab
	}
}
