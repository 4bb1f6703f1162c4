package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// LayoutSchema is the top-level JSON structure for a venue layout import.
// Types and nodes are linked by file-local refs; real ids are assigned on
// conversion.
type LayoutSchema struct {
	EventID string       `json:"event_id"`
	Types   []TypeImport `json:"types"`
	Nodes   []NodeImport `json:"nodes"`
}

// TypeImport defines a venue type in the import file.
type TypeImport struct {
	Ref          string `json:"ref"`
	Label        string `json:"label"`
	IsUnit       bool   `json:"is_unit"`
	SubUnitLabel string `json:"sub_unit_label,omitempty"`
}

// NodeImport defines a venue node in the import file. Nodes may appear in
// any order; parents are created before their children.
type NodeImport struct {
	Ref       string  `json:"ref"`
	ParentRef *string `json:"parent_ref,omitempty"`
	Name      string  `json:"name"`
	TypeRef   string  `json:"type_ref"`
	Capacity  *int    `json:"capacity,omitempty"`
	Order     int     `json:"order"`
}

// LoadLayoutSchema reads and parses a layout import JSON file.
func LoadLayoutSchema(path string) (*LayoutSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseLayoutSchema(data)
}

// ParseLayoutSchema parses layout JSON. Unknown fields are rejected so that
// typos in optional keys do not silently drop data.
func ParseLayoutSchema(data []byte) (*LayoutSchema, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var schema LayoutSchema
	if err := dec.Decode(&schema); err != nil {
		return nil, fmt.Errorf("parsing layout file: %w", err)
	}
	return &schema, nil
}
