// Package valfmt reads and writes Valentina .val pattern files. Operations
// are converted to and from XML elements by a Dispatcher, a registry that
// maps every supported element to exactly one operation kind and back.
package valfmt

import (
	"encoding/xml"
	"strings"
)

// Element is a generic XML node. Attributes keep their document order.
type Element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []*Element `xml:",any"`
}

// NewElement creates an element with the given tag and attribute pairs.
func NewElement(tag string, kv ...string) *Element {
	el := &Element{XMLName: xml.Name{Local: tag}}
	for i := 0; i+1 < len(kv); i += 2 {
		el.Set(kv[i], kv[i+1])
	}
	return el
}

// Tag returns the element name.
func (e *Element) Tag() string { return e.XMLName.Local }

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Set replaces the named attribute, appending it when absent.
func (e *Element) Set(name, value string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name.Local == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

// SetOptional sets the attribute only when value is not empty.
func (e *Element) SetOptional(name, value string) {
	if value != "" {
		e.Set(name, value)
	}
}

// Child returns the first child with the given tag, or nil.
func (e *Element) Child(tag string) *Element {
	for _, c := range e.Children {
		if c.Tag() == tag {
			return c
		}
	}
	return nil
}

// Append adds children and returns e.
func (e *Element) Append(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// trim drops the indentation whitespace collected as character data.
func (e *Element) trim() {
	e.Text = strings.TrimSpace(e.Text)
	for _, c := range e.Children {
		c.trim()
	}
}
