package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAML decodes a YAML schema document:
//
//	types:
//	  - name: Color
//	    fields:
//	      - {name: r, type: u16}
//	  - name: Palette
//	    policy: packed
//	    fields:
//	      - {name: monochrome, type: bool}
//	      - {name: colors, type: Color, len: 16}
//
// Unknown keys are rejected. filename is used for error positions only.
// The result is not validated.
func LoadYAML(data []byte, filename string) (*Document, error) {
	doc := &Document{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil {
		if errors.Is(err, io.EOF) {
			return doc, nil
		}
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	// Second pass over the node tree recovers line numbers for diagnostics.
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err == nil {
		for i, line := range typeLines(&root) {
			if i < len(doc.Types) {
				doc.Types[i].File = filename
				doc.Types[i].Line = line
			}
		}
	}

	return doc, nil
}

// LoadYAMLFile reads and decodes a YAML schema file.
func LoadYAMLFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return LoadYAML(data, path)
}

// typeLines returns the line of each entry of the top-level "types" list.
func typeLines(root *yaml.Node) []int {
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil
	}
	m := root.Content[0]
	if m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value != "types" {
			continue
		}
		seq := m.Content[i+1]
		if seq.Kind != yaml.SequenceNode {
			return nil
		}
		lines := make([]int, len(seq.Content))
		for j, item := range seq.Content {
			lines[j] = item.Line
		}
		return lines
	}
	return nil
}
