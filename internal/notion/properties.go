package notion

import (
	"encoding/json"
)

// Properties holds a page's properties keyed by name. Values stay raw until
// read through one of the typed accessors, so a property of an unexpected
// shape never fails decoding of the page itself.
type Properties map[string]json.RawMessage

type selectOption struct {
	Name string `json:"name"`
}

type dateValue struct {
	Start string `json:"start"`
}

type propertyValue struct {
	Type        string          `json:"type"`
	Title       json.RawMessage `json:"title"`
	RichText    json.RawMessage `json:"rich_text"`
	Date        *dateValue      `json:"date"`
	Checkbox    *bool           `json:"checkbox"`
	MultiSelect []selectOption  `json:"multi_select"`
	Select      *selectOption   `json:"select"`
}

func (p Properties) value(name string) (*propertyValue, bool) {
	raw, ok := p[name]
	if !ok {
		return nil, false
	}
	var v propertyValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return &v, true
}

// firstPlainText returns the plain text of the first span.
func firstPlainText(data json.RawMessage) (string, bool) {
	spans := decodeSpans(data)
	if len(spans) == 0 {
		return "", false
	}
	return spans[0].PlainText, true
}

// Title returns the plain text of the first span of a title property.
func (p Properties) Title(name string) (string, bool) {
	v, ok := p.value(name)
	if !ok {
		return "", false
	}
	return firstPlainText(v.Title)
}

// Text returns the plain text of the first span of a rich_text property.
func (p Properties) Text(name string) (string, bool) {
	v, ok := p.value(name)
	if !ok {
		return "", false
	}
	return firstPlainText(v.RichText)
}

// Date returns the start of a date property.
func (p Properties) Date(name string) (string, bool) {
	v, ok := p.value(name)
	if !ok || v.Date == nil {
		return "", false
	}
	return v.Date.Start, true
}

// Checkbox returns the value of a checkbox property.
func (p Properties) Checkbox(name string) (bool, bool) {
	v, ok := p.value(name)
	if !ok || v.Checkbox == nil {
		return false, false
	}
	return *v.Checkbox, true
}

// MultiSelect returns the option names of a multi_select property.
func (p Properties) MultiSelect(name string) ([]string, bool) {
	v, ok := p.value(name)
	if !ok || v.MultiSelect == nil {
		return nil, false
	}
	names := make([]string, 0, len(v.MultiSelect))
	for _, opt := range v.MultiSelect {
		names = append(names, opt.Name)
	}
	return names, true
}

// Select returns the option name of a select property.
func (p Properties) Select(name string) (string, bool) {
	v, ok := p.value(name)
	if !ok || v.Select == nil {
		return "", false
	}
	return v.Select.Name, true
}
