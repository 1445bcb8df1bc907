package valfmt

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/chazu/selvage/pkg/engine"
	"github.com/chazu/selvage/pkg/measure"
	"github.com/chazu/selvage/pkg/pattern"
	"github.com/chazu/selvage/pkg/sketch"
)

// FormatVersion is written to every saved pattern.
const FormatVersion = "0.7.10"

const headerComment = " Pattern written by selvage "

// Options configures Read and Decode. The zero value is usable.
type Options struct {
	Logger     *slog.Logger
	Engine     *engine.Engine
	Dispatcher *Dispatcher

	// IDs observes every identifier read; a fresh generator is used when
	// nil.
	IDs *sketch.IDGenerator

	// Catalog is used to warn about unknown measurement names. The standard
	// catalog is used when nil.
	Catalog *measure.Catalog

	// Path is the location of the pattern, used to resolve a relative
	// measurements reference.
	Path string

	// MeasurementDirs are searched after the pattern's own directory.
	MeasurementDirs []string

	// Measurements, when set, replaces the measurement file named by the
	// pattern.
	Measurements measure.Table
}

func (o *Options) defaults() {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Engine == nil {
		o.Engine = engine.NewEngine(o.Logger)
	}
	if o.Dispatcher == nil {
		o.Dispatcher = Default
	}
	if o.IDs == nil {
		o.IDs = sketch.NewIDGenerator(0)
	}
}

// SkippedElement records a calculation element that was not loaded.
type SkippedElement struct {
	Scope string
	Tag   string
	Type  string
	ID    string
	Err   error
}

func (s SkippedElement) String() string {
	desc := s.Tag
	if s.Type != "" {
		desc += " " + s.Type
	}
	if s.ID != "" {
		desc += " #" + s.ID
	}
	return fmt.Sprintf("%s: %s: %v", s.Scope, desc, s.Err)
}

// Document is a loaded pattern together with everything needed to evaluate
// and save it again.
type Document struct {
	Path    string
	Version string
	Pattern *pattern.Pattern

	// Individual is nil when the pattern names no measurement file or the
	// measurements were supplied through Options.
	Individual *measure.Individual

	// Variables holds the increments and measurements visible to formulas.
	Variables measure.Table

	IDs     *sketch.IDGenerator
	Skipped []SkippedElement
}

type valIncrement struct {
	Name        string `xml:"name,attr"`
	Formula     string `xml:"formula,attr"`
	Description string `xml:"description,attr"`
}

type valDraw struct {
	Name        string  `xml:"name,attr"`
	Calculation Element `xml:"calculation"`
	Modeling    Element `xml:"modeling"`
	Details     Element `xml:"details"`
}

type valFile struct {
	XMLName      xml.Name       `xml:"pattern"`
	Comment      string         `xml:",comment"`
	Version      string         `xml:"version"`
	Unit         string         `xml:"unit"`
	Author       string         `xml:"author"`
	Description  string         `xml:"description"`
	Notes        string         `xml:"notes"`
	Measurements string         `xml:"measurements"`
	Increments   []valIncrement `xml:"increments>increment"`
	Draws        []valDraw      `xml:"draw"`
}

// Read loads the pattern at path.
func Read(path string, opts Options) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	opts.Path = path
	doc, err := Decode(bufio.NewReader(f), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode loads a pattern from r and evaluates every scope. Elements that
// cannot be decoded or registered are logged and recorded in
// Document.Skipped; evaluation failures, including dependencies on skipped
// elements, fail the whole load.
func Decode(r io.Reader, opts Options) (*Document, error) {
	opts.defaults()
	log := opts.Logger

	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel
	var file valFile
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("valfmt: decoding pattern: %w", err)
	}

	doc := &Document{
		Path:    opts.Path,
		Version: strings.TrimSpace(file.Version),
		Pattern: pattern.New(strings.TrimSpace(file.Unit)),
		IDs:     opts.IDs,
	}
	p := doc.Pattern
	p.Author = strings.TrimSpace(file.Author)
	p.Description = strings.TrimSpace(file.Description)
	p.Notes = strings.TrimSpace(file.Notes)
	p.Measurements = strings.TrimSpace(file.Measurements)

	for _, inc := range file.Increments {
		if err := p.AddIncrement(pattern.Increment(inc)); err != nil {
			return nil, err
		}
	}

	measurements, err := loadMeasurements(doc, &opts)
	if err != nil {
		return nil, err
	}
	increments, err := p.ResolveIncrements(opts.Engine.Evaluate, measurements)
	if err != nil {
		return nil, err
	}
	doc.Variables = measure.Layered{increments, measurements}
	calc := opts.Engine.Calculator(doc.Variables)

	observeIDs(&file, opts.IDs)
	seen := make(map[sketch.ID]string)
	ctx := &DecodeContext{IDs: opts.IDs}
	for _, draw := range file.Draws {
		scope, err := p.AddScope(draw.Name, calc)
		if err != nil {
			return nil, err
		}
		for _, el := range draw.Calculation.Children {
			el.trim()
			op, err := opts.Dispatcher.FromXML(el, ctx)
			if err == nil {
				if prev, dup := seen[op.ID()]; dup {
					err = fmt.Errorf("%w: %s already used in scope %q", sketch.ErrDuplicateID, op.ID(), prev)
				} else {
					err = scope.Sketch.Add(op)
				}
			}
			if err != nil {
				doc.skip(log, draw.Name, el, err)
				continue
			}
			seen[op.ID()] = draw.Name
			opts.IDs.Observe(op.ID())
		}
		log.Debug("loaded scope", "scope", draw.Name, "operations", scope.Sketch.Len())
	}

	if err := p.Eval(); err != nil {
		return nil, err
	}
	return doc, nil
}

// observeIDs records every explicit id in the file so that IDs minted for
// id-less elements never collide with one that appears later.
func observeIDs(file *valFile, ids *sketch.IDGenerator) {
	for _, draw := range file.Draws {
		for _, el := range draw.Calculation.Children {
			v, ok := el.Attr("id")
			if !ok {
				continue
			}
			if n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64); err == nil && n > 0 {
				ids.Observe(sketch.ID(n))
			}
		}
	}
}

func (d *Document) skip(log *slog.Logger, scope string, el *Element, err error) {
	s := SkippedElement{Scope: scope, Tag: el.Tag(), Err: err}
	s.Type, _ = el.Attr(TypeAttr)
	s.ID, _ = el.Attr("id")
	d.Skipped = append(d.Skipped, s)

	attrs := []any{"scope", scope, "tag", s.Tag, "type", s.Type, "id", s.ID, "error", err}
	if errors.Is(err, ErrUnsupportedOperation) {
		log.Warn("skipping unsupported element", attrs...)
		return
	}
	log.Warn("skipping invalid element", attrs...)
}

// loadMeasurements returns the measurement values visible to the pattern.
func loadMeasurements(doc *Document, opts *Options) (measure.Table, error) {
	if opts.Measurements != nil {
		return opts.Measurements, nil
	}
	ref := doc.Pattern.Measurements
	if ref == "" {
		return measure.Values{}, nil
	}
	path, err := measure.ResolvePath(ref, opts.Path, opts.MeasurementDirs...)
	if err != nil {
		return nil, err
	}
	ind, err := measure.ReadIndividual(path)
	if err != nil {
		return nil, err
	}
	doc.Individual = ind

	cat := opts.Catalog
	if cat == nil {
		if cat, err = measure.Standard(); err != nil {
			return nil, err
		}
	}
	for _, name := range ind.Unknown(cat) {
		opts.Logger.Warn("unknown measurement", "name", name, "file", path)
	}

	values, err := ind.Resolve(opts.Engine.Evaluate, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	opts.Logger.Debug("loaded measurements", "file", path, "count", len(values))
	return values, nil
}

// Encode writes p as an indented .val document. Operations are written in
// insertion order; an operation without a codec fails the whole write.
func Encode(w io.Writer, p *pattern.Pattern, d *Dispatcher) error {
	if d == nil {
		d = Default
	}
	file := valFile{
		Comment:      headerComment,
		Version:      FormatVersion,
		Unit:         p.Unit,
		Author:       p.Author,
		Description:  p.Description,
		Notes:        p.Notes,
		Measurements: p.Measurements,
	}
	for _, inc := range p.Increments() {
		file.Increments = append(file.Increments, valIncrement(inc))
	}
	for _, scope := range p.Scopes() {
		draw := valDraw{
			Name:        scope.Name,
			Calculation: *NewElement("calculation"),
			Modeling:    *NewElement("modeling"),
			Details:     *NewElement("details"),
		}
		for _, op := range scope.Sketch.Operations() {
			el, err := d.FromOperation(op)
			if err != nil {
				return fmt.Errorf("valfmt: scope %q: %w", scope.Name, err)
			}
			draw.Calculation.Append(el)
		}
		file.Draws = append(file.Draws, draw)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")
	if err := enc.Encode(&file); err != nil {
		return fmt.Errorf("valfmt: encoding pattern: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Write saves p to path, creating or truncating the file.
func Write(path string, p *pattern.Pattern, d *Dispatcher) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := Encode(w, p, d); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
