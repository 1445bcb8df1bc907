package measure

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html/charset"
)

var (
	// ErrMeasurementFileNotFound is returned when a measurement reference
	// resolves to no existing file.
	ErrMeasurementFileNotFound = errors.New("measure: measurement file not found")

	// ErrUnresolvedMeasurement is returned when a measurement formula cannot
	// be evaluated from the other measurements.
	ErrUnresolvedMeasurement = errors.New("measure: unresolved measurement")
)

// VitVersion is written to the version element of saved files.
const VitVersion = "0.3.3"

// Entry is one measurement of an individual. Value is a formula; custom
// measurements have names starting with '@'.
type Entry struct {
	Name        string `xml:"name,attr"`
	Value       string `xml:"value,attr"`
	FullName    string `xml:"full_name,attr,omitempty"`
	Description string `xml:"description,attr,omitempty"`
}

// IsCustom reports whether the entry is a user-defined measurement.
func (e Entry) IsCustom() bool { return strings.HasPrefix(e.Name, "@") }

// Personal holds the customer data of a measurement file.
type Personal struct {
	Customer  string `xml:"customer"`
	BirthDate string `xml:"birth-date"`
	Gender    string `xml:"gender"`
	Email     string `xml:"email"`
}

// Individual is the content of a .vit file.
type Individual struct {
	XMLName      xml.Name `xml:"vit"`
	Version      string   `xml:"version"`
	ReadOnly     bool     `xml:"read-only"`
	Notes        string   `xml:"notes"`
	Unit         string   `xml:"unit"`
	PMSystem     string   `xml:"pm_system"`
	Personal     Personal `xml:"personal"`
	Measurements []Entry  `xml:"body-measurements>m"`

	// Path is the file the individual was read from.
	Path string `xml:"-"`
}

// DecodeIndividual reads a .vit document.
func DecodeIndividual(r io.Reader) (*Individual, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel
	var ind Individual
	if err := decoder.Decode(&ind); err != nil {
		return nil, fmt.Errorf("measure: decoding measurements: %w", err)
	}
	return &ind, nil
}

// ReadIndividual reads the .vit file at path.
func ReadIndividual(path string) (*Individual, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ind, err := DecodeIndividual(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ind.Path = path
	return ind, nil
}

// Encode writes the individual as an indented .vit document.
func (ind *Individual) Encode(w io.Writer) error {
	out := *ind
	if out.Version == "" {
		out.Version = VitVersion
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")
	if err := enc.Encode(&out); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Unknown returns the names of non-custom measurements missing from cat.
func (ind *Individual) Unknown(cat *Catalog) []string {
	var names []string
	for _, e := range ind.Measurements {
		if !e.IsCustom() && !cat.Contains(e.Name) {
			names = append(names, e.Name)
		}
	}
	return names
}

// EvalFunc evaluates a formula against a table.
type EvalFunc func(formula string, vars Table) (float64, error)

// Resolve evaluates every measurement formula. Measurements may reference
// each other in any order; base is consulted for names not defined in the
// file. Resolution fails with ErrUnresolvedMeasurement when some formulas
// never become computable.
func (ind *Individual) Resolve(eval EvalFunc, base Table) (Values, error) {
	values := make(Values, len(ind.Measurements))
	vars := Layered{values, base}

	pending := ind.Measurements
	for len(pending) > 0 {
		var next []Entry
		var firstErr error
		for _, e := range pending {
			v, err := eval(e.Value, vars)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				next = append(next, e)
				continue
			}
			values[e.Name] = v
		}
		if len(next) == len(pending) {
			return nil, fmt.Errorf("%w: %s: %w", ErrUnresolvedMeasurement, next[0].Name, firstErr)
		}
		pending = next
	}
	return values, nil
}

// ResolvePath locates the measurement file referenced by a pattern. The
// reference is tried as given, then relative to the pattern file, then in
// each of dirs.
func ResolvePath(ref, patternPath string, dirs ...string) (string, error) {
	candidates := []string{ref}
	if !filepath.IsAbs(ref) && patternPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(patternPath), ref))
	}
	for _, dir := range dirs {
		candidates = append(candidates, filepath.Join(dir, ref), filepath.Join(dir, filepath.Base(ref)))
	}
	for _, c := range candidates {
		if fi, err := os.Stat(c); err == nil && !fi.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrMeasurementFileNotFound, ref)
}
