package valfmt

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/chazu/selvage/pkg/sketch"
)

// TypeAttr is the attribute that selects between polymorphic codecs
// sharing a tag, such as the point types.
const TypeAttr = "type"

var (
	// ErrUnsupportedOperation is returned by FromXML for elements no codec
	// handles. Readers skip such elements.
	ErrUnsupportedOperation = errors.New("valfmt: unsupported operation")

	// ErrUnregisteredOperation is returned by FromOperation for an operation
	// kind with no codec. Writers treat it as fatal.
	ErrUnregisteredOperation = errors.New("valfmt: unregistered operation")

	// ErrDispatcherConfig reports an inconsistent codec set.
	ErrDispatcherConfig = errors.New("valfmt: invalid dispatcher configuration")
)

// UnsupportedError describes an element no codec handles.
type UnsupportedError struct {
	Tag  string
	Type string
}

func (e *UnsupportedError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s: <%s %s=%q>", ErrUnsupportedOperation, e.Tag, TypeAttr, e.Type)
	}
	return fmt.Sprintf("%s: <%s>", ErrUnsupportedOperation, e.Tag)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupportedOperation }

// DecodeContext carries state shared by the codecs while a document is read.
type DecodeContext struct {
	// IDs mints identifiers for elements without an id attribute. When nil
	// such elements are rejected.
	IDs *sketch.IDGenerator
}

// Codec converts one element kind to one operation kind and back.
type Codec struct {
	Tag  string
	Type string // value of TypeAttr, empty for plain tags
	Kind sketch.Kind

	Decode func(el *Element, ctx *DecodeContext) (sketch.Operation, error)
	// Encode fills el, which already carries the tag and type, from op.
	Encode func(op sketch.Operation, el *Element) error
}

// Dispatcher is a bidirectional codec registry. It is immutable once built
// and safe for concurrent use.
type Dispatcher struct {
	plain  map[string]*Codec
	typed  map[string]map[string]*Codec
	byKind map[sketch.Kind]*Codec
}

// NewDispatcher verifies that codecs form a bijection between elements and
// operation kinds.
func NewDispatcher(codecs ...Codec) (*Dispatcher, error) {
	d := &Dispatcher{
		plain:  make(map[string]*Codec),
		typed:  make(map[string]map[string]*Codec),
		byKind: make(map[sketch.Kind]*Codec),
	}
	for i := range codecs {
		c := &codecs[i]
		switch {
		case c.Tag == "":
			return nil, fmt.Errorf("%w: codec for %s has no tag", ErrDispatcherConfig, c.Kind)
		case c.Decode == nil || c.Encode == nil:
			return nil, fmt.Errorf("%w: codec <%s> for %s is missing a function", ErrDispatcherConfig, c.Tag, c.Kind)
		}
		if prev, dup := d.byKind[c.Kind]; dup {
			return nil, fmt.Errorf("%w: kind %s registered for <%s> and <%s>", ErrDispatcherConfig, c.Kind, prev.Tag, c.Tag)
		}
		d.byKind[c.Kind] = c

		if c.Type == "" {
			if _, dup := d.plain[c.Tag]; dup {
				return nil, fmt.Errorf("%w: tag <%s> registered twice", ErrDispatcherConfig, c.Tag)
			}
			if _, poly := d.typed[c.Tag]; poly {
				return nil, fmt.Errorf("%w: tag <%s> is both plain and polymorphic", ErrDispatcherConfig, c.Tag)
			}
			d.plain[c.Tag] = c
			continue
		}
		if _, plain := d.plain[c.Tag]; plain {
			return nil, fmt.Errorf("%w: tag <%s> is both plain and polymorphic", ErrDispatcherConfig, c.Tag)
		}
		byType := d.typed[c.Tag]
		if byType == nil {
			byType = make(map[string]*Codec)
			d.typed[c.Tag] = byType
		}
		if _, dup := byType[c.Type]; dup {
			return nil, fmt.Errorf("%w: <%s %s=%q> registered twice", ErrDispatcherConfig, c.Tag, TypeAttr, c.Type)
		}
		byType[c.Type] = c
	}
	return d, nil
}

// MustDispatcher is like NewDispatcher but panics on error.
func MustDispatcher(codecs ...Codec) *Dispatcher {
	d, err := NewDispatcher(codecs...)
	if err != nil {
		panic(err)
	}
	return d
}

// Default handles every operation kind in package sketch.
var Default = MustDispatcher(DefaultCodecs()...)

func (d *Dispatcher) lookup(el *Element) (*Codec, error) {
	if c, ok := d.plain[el.Tag()]; ok {
		return c, nil
	}
	byType, ok := d.typed[el.Tag()]
	if !ok {
		typ, _ := el.Attr(TypeAttr)
		return nil, &UnsupportedError{Tag: el.Tag(), Type: typ}
	}
	typ, _ := el.Attr(TypeAttr)
	c, ok := byType[typ]
	if !ok {
		return nil, &UnsupportedError{Tag: el.Tag(), Type: typ}
	}
	return c, nil
}

// FromXML decodes el into an operation. A nil ctx is treated as empty.
func (d *Dispatcher) FromXML(el *Element, ctx *DecodeContext) (sketch.Operation, error) {
	c, err := d.lookup(el)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = &DecodeContext{}
	}
	op, err := c.Decode(el, ctx)
	if err != nil {
		return nil, fmt.Errorf("<%s>: %w", describe(el), err)
	}
	return op, nil
}

// FromOperation encodes op as an element.
func (d *Dispatcher) FromOperation(op sketch.Operation) (*Element, error) {
	c, ok := d.byKind[op.Kind()]
	if !ok {
		return nil, fmt.Errorf("%w: %s (id %s)", ErrUnregisteredOperation, op.Kind(), op.ID())
	}
	el := NewElement(c.Tag)
	if c.Type != "" {
		el.Set(TypeAttr, c.Type)
	}
	if err := c.Encode(op, el); err != nil {
		return nil, fmt.Errorf("encoding %s %s: %w", op.Kind(), op.ID(), err)
	}
	return el, nil
}

// Supports reports whether el has a codec.
func (d *Dispatcher) Supports(el *Element) bool {
	_, err := d.lookup(el)
	return err == nil
}

// Kinds returns the registered operation kinds in ascending order.
func (d *Dispatcher) Kinds() []sketch.Kind {
	kinds := make([]sketch.Kind, 0, len(d.byKind))
	for k := range d.byKind {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

func describe(el *Element) string {
	var b strings.Builder
	b.WriteString(el.Tag())
	for _, name := range []string{TypeAttr, "id"} {
		if v, ok := el.Attr(name); ok {
			fmt.Fprintf(&b, " %s=%q", name, v)
		}
	}
	return b.String()
}
