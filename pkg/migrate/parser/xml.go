package parser

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// decodeXMLRecords decodes an XML export into the direct children of the root
// element, each rendered as a generic value: a map for elements carrying
// attributes or child elements, a plain string for text-only elements.
// Attribute values become map keys; when an element carries both attributes
// and text, the text is exposed under the "value" key so reference-shaped
// fields (display_value attribute + raw text) flatten uniformly.
func decodeXMLRecords(data []byte) (rootName string, records []interface{}, err error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var root *xml.StartElement
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("malformed XML: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			root = &start
			break
		}
	}
	if root == nil {
		return "", nil, fmt.Errorf("malformed XML: no root element")
	}
	rootName = root.Name.Local

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return "", nil, fmt.Errorf("malformed XML: unexpected end of document")
		}
		if err != nil {
			return "", nil, fmt.Errorf("malformed XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			value, err := parseXMLElement(decoder, t)
			if err != nil {
				return "", nil, err
			}
			records = append(records, value)
		case xml.EndElement:
			if t.Name.Local == rootName {
				return rootName, records, nil
			}
		}
	}
}

// parseXMLElement recursively parses one element and its subtree.
func parseXMLElement(decoder *xml.Decoder, start xml.StartElement) (interface{}, error) {
	children := make(map[string]interface{})
	var text strings.Builder

	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("malformed XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseXMLElement(decoder, t)
			if err != nil {
				return nil, err
			}
			children[t.Name.Local] = child
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			trimmed := strings.TrimSpace(text.String())
			if len(children) == 0 && len(start.Attr) == 0 {
				return trimmed, nil
			}
			m := make(map[string]interface{}, len(children)+len(start.Attr)+1)
			for _, attr := range start.Attr {
				m[attr.Name.Local] = attr.Value
			}
			for k, v := range children {
				m[k] = v
			}
			if trimmed != "" {
				if _, exists := m["value"]; !exists {
					m["value"] = trimmed
				}
			}
			return m, nil
		}
	}
}
