package react

import (
	"encoding/xml"
	"fmt"

	"github.com/vantle/sibyl/pkg/utils/json"
)

// MetadataKind classifies a discovered schema fact.
type MetadataKind string

const (
	MetadataTable        MetadataKind = "table"
	MetadataColumn       MetadataKind = "column"
	MetadataValue        MetadataKind = "value"
	MetadataRelationship MetadataKind = "relationship"
	MetadataConstraint   MetadataKind = "constraint"
)

// MetadataItem is one schema-exploration fact streamed by metadata_item
// events and snapshotted in a step's metadata_xml.
type MetadataItem struct {
	Kind        MetadataKind `json:"kind"`
	Table       string       `json:"table,omitempty"`
	Column      string       `json:"column,omitempty"`
	DataType    string       `json:"data_type,omitempty"`
	Value       string       `json:"value,omitempty"`
	ToTable     string       `json:"to_table,omitempty"`
	ToColumn    string       `json:"to_column,omitempty"`
	Description string       `json:"description,omitempty"`
}

// Key returns the identity under which an item deduplicates within a set.
func (m MetadataItem) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s", m.Kind, m.Table, m.Column, m.Value, m.ToTable, m.ToColumn)
}

// MetadataSet is the working collection of discovered schema facts, ordered
// by first discovery and deduplicated by item identity.
type MetadataSet struct {
	items []MetadataItem
	index map[string]int
}

// Add inserts an item, replacing an existing entry with the same identity.
func (s *MetadataSet) Add(item MetadataItem) {
	if s.index == nil {
		s.index = map[string]int{}
	}
	key := item.Key()
	if i, ok := s.index[key]; ok {
		s.items[i] = item
		return
	}
	s.index[key] = len(s.items)
	s.items = append(s.items, item)
}

// Replace swaps the whole collection for the given items, used when a step's
// authoritative metadata_xml snapshot supersedes the streamed items.
func (s *MetadataSet) Replace(items []MetadataItem) {
	s.items = nil
	s.index = nil
	for _, item := range items {
		s.Add(item)
	}
}

// Items returns the facts in discovery order.
func (s *MetadataSet) Items() []MetadataItem {
	out := make([]MetadataItem, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of distinct facts.
func (s *MetadataSet) Len() int {
	return len(s.items)
}

// MarshalJSON encodes the set as its ordered item list.
func (s MetadataSet) MarshalJSON() ([]byte, error) {
	if s.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.items)
}

// UnmarshalJSON rebuilds the set from an item list.
func (s *MetadataSet) UnmarshalJSON(data []byte) error {
	var items []MetadataItem
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	s.Replace(items)
	return nil
}

// ByKind returns the facts of one kind, in discovery order.
func (s *MetadataSet) ByKind(kind MetadataKind) []MetadataItem {
	var out []MetadataItem
	for _, item := range s.items {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	return out
}

// metadataDoc mirrors the metadata_xml snapshot layout.
type metadataDoc struct {
	XMLName       xml.Name         `xml:"metadata"`
	Tables        []tableElem      `xml:"tables>table"`
	Columns       []columnElem     `xml:"columns>column"`
	Values        []valueElem      `xml:"values>value"`
	Relationships []relationElem   `xml:"relationships>relationship"`
	Constraints   []constraintElem `xml:"constraints>constraint"`
}

type tableElem struct {
	Name        string `xml:"name,attr"`
	Description string `xml:",chardata"`
}

type columnElem struct {
	Table       string `xml:"table,attr"`
	Name        string `xml:"name,attr"`
	Type        string `xml:"type,attr"`
	Description string `xml:",chardata"`
}

type valueElem struct {
	Table  string `xml:"table,attr"`
	Column string `xml:"column,attr"`
	Value  string `xml:",chardata"`
}

type relationElem struct {
	FromTable  string `xml:"from_table,attr"`
	FromColumn string `xml:"from_column,attr"`
	ToTable    string `xml:"to_table,attr"`
	ToColumn   string `xml:"to_column,attr"`
}

type constraintElem struct {
	Table      string `xml:"table,attr"`
	Column     string `xml:"column,attr"`
	Type       string `xml:"type,attr"`
	Definition string `xml:",chardata"`
}

// ParseMetadataXML decodes a step's metadata_xml snapshot into items. The
// snapshot is cumulative, so the result replaces the working collection
// rather than extending it.
func ParseMetadataXML(raw string) ([]MetadataItem, error) {
	if raw == "" {
		return nil, nil
	}
	var doc metadataDoc
	if err := xml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("parse metadata xml: %w", err)
	}

	var items []MetadataItem
	for _, t := range doc.Tables {
		items = append(items, MetadataItem{Kind: MetadataTable, Table: t.Name, Description: trimXMLText(t.Description)})
	}
	for _, c := range doc.Columns {
		items = append(items, MetadataItem{Kind: MetadataColumn, Table: c.Table, Column: c.Name, DataType: c.Type, Description: trimXMLText(c.Description)})
	}
	for _, v := range doc.Values {
		items = append(items, MetadataItem{Kind: MetadataValue, Table: v.Table, Column: v.Column, Value: trimXMLText(v.Value)})
	}
	for _, r := range doc.Relationships {
		items = append(items, MetadataItem{Kind: MetadataRelationship, Table: r.FromTable, Column: r.FromColumn, ToTable: r.ToTable, ToColumn: r.ToColumn})
	}
	for _, c := range doc.Constraints {
		items = append(items, MetadataItem{Kind: MetadataConstraint, Table: c.Table, Column: c.Column, DataType: c.Type, Description: trimXMLText(c.Definition)})
	}
	return items, nil
}

func trimXMLText(s string) string {
	return normalizeWhitespace(s)
}
