package report

import (
	"encoding/json"
	"fmt"
)

// MarshalDocument encodes a document as indented JSON.
func MarshalDocument(d *Document) ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return append(data, '\n'), nil
}

// MarshalComponent encodes a single component as indented JSON.
func MarshalComponent(c *Component) ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode component %s: %w", c.Name, err)
	}
	return append(data, '\n'), nil
}
