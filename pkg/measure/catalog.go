package measure

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrDuplicateMeasurement is returned when a catalog already holds a name.
var ErrDuplicateMeasurement = errors.New("measure: measurement already registered")

// Measurement describes one standard body measurement.
type Measurement struct {
	Code        string
	Name        string
	FullName    string
	Description string
	Default     float64
}

// Catalog is an ordered set of measurements keyed by name.
type Catalog struct {
	order  []Measurement
	byName map[string]int
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byName: make(map[string]int)}
}

// Add registers m. Names must be unique.
func (c *Catalog) Add(m Measurement) error {
	if _, dup := c.byName[m.Name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateMeasurement, m.Name)
	}
	c.byName[m.Name] = len(c.order)
	c.order = append(c.order, m)
	return nil
}

// Get returns the measurement with the given name.
func (c *Catalog) Get(name string) (Measurement, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Measurement{}, false
	}
	return c.order[i], true
}

func (c *Catalog) Contains(name string) bool {
	_, ok := c.byName[name]
	return ok
}

func (c *Catalog) Len() int { return len(c.order) }

// All yields the measurements in registration order.
func (c *Catalog) All() iter.Seq[Measurement] {
	return slices.Values(c.order)
}

// Defaults returns a table of every default value.
func (c *Catalog) Defaults() Values {
	v := make(Values, len(c.order))
	for _, m := range c.order {
		v[m.Name] = m.Default
	}
	return v
}

type catalogTopic struct {
	Name         string           `yaml:"name"`
	Measurements map[string][]any `yaml:"measurements"`
}

// LoadCatalog reads a catalog from YAML. The document maps topic letters to
// a name and a set of `code: [name, full name, description, default]`
// entries. Measurements are registered sorted by topic then code.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var topics map[string]catalogTopic
	if err := yaml.NewDecoder(r).Decode(&topics); err != nil {
		return nil, fmt.Errorf("measure: decoding catalog: %w", err)
	}

	c := NewCatalog()
	for _, key := range slices.Sorted(maps.Keys(topics)) {
		entries := topics[key].Measurements
		for _, code := range slices.Sorted(maps.Keys(entries)) {
			m, err := catalogEntry(code, entries[code])
			if err != nil {
				return nil, err
			}
			if err := c.Add(m); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func catalogEntry(code string, fields []any) (Measurement, error) {
	if len(fields) != 4 {
		return Measurement{}, fmt.Errorf("measure: entry %s: want 4 fields, got %d", code, len(fields))
	}
	m := Measurement{Code: code}
	for i, dst := range []*string{&m.Name, &m.FullName, &m.Description} {
		s, ok := fields[i].(string)
		if !ok {
			return Measurement{}, fmt.Errorf("measure: entry %s: field %d is %T, want string", code, i, fields[i])
		}
		*dst = s
	}
	switch v := fields[3].(type) {
	case int:
		m.Default = float64(v)
	case float64:
		m.Default = v
	default:
		return Measurement{}, fmt.Errorf("measure: entry %s: default is %T, want number", code, fields[3])
	}
	return m, nil
}

//go:embed data/standard-measurements.yaml
var standardYAML []byte

// Standard returns the built-in Valentina catalog. It is parsed once.
var Standard = sync.OnceValues(func() (*Catalog, error) {
	return LoadCatalog(bytes.NewReader(standardYAML))
})
