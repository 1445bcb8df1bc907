package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"text/tabwriter"

	"github.com/chazu/selvage/pkg/config"
	"github.com/chazu/selvage/pkg/engine"
	"github.com/chazu/selvage/pkg/outline"
	"github.com/chazu/selvage/pkg/sketch"
	"github.com/chazu/selvage/pkg/valfmt"
)

// ErrInvalidPattern is returned by Run when validation reports errors.
var ErrInvalidPattern = errors.New("pattern has validation errors")

// App is the command line backend. It loads a pattern, summarises and
// optionally validates it, and writes it back.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	engine *engine.Engine
	ids    *sketch.IDGenerator
}

// BoundsData is the JSON form of a bounding box.
type BoundsData struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// ScopeSummary describes one evaluated pattern piece.
type ScopeSummary struct {
	Name       string         `json:"name"`
	Operations int            `json:"operations"`
	Kinds      map[string]int `json:"kinds"`
	Bounds     *BoundsData    `json:"bounds,omitempty"`
}

// IssueData is a skipped element or a validation finding.
type IssueData struct {
	Scope   string `json:"scope"`
	Op      string `json:"op,omitempty"`
	Message string `json:"message"`
}

// Result is the full report for one pattern.
type Result struct {
	Path     string         `json:"path"`
	Unit     string         `json:"unit"`
	Scopes   []ScopeSummary `json:"scopes"`
	Skipped  []IssueData    `json:"skipped"`
	Errors   []IssueData    `json:"errors"`
	Warnings []IssueData    `json:"warnings"`
}

// NewApp creates an App. A nil logger uses slog.Default().
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		cfg:    cfg,
		logger: logger,
		engine: engine.NewEngine(logger),
		ids:    sketch.NewIDGenerator(0),
	}
}

// Load reads and evaluates the pattern at path.
func (a *App) Load(path string) (*valfmt.Document, error) {
	return valfmt.Read(path, valfmt.Options{
		Logger:          a.logger,
		Engine:          a.engine,
		IDs:             a.ids,
		MeasurementDirs: a.cfg.MeasurementDirs,
	})
}

// Evaluate builds the report for a loaded document.
func (a *App) Evaluate(doc *valfmt.Document, validate bool) Result {
	result := Result{
		Path:     doc.Path,
		Unit:     doc.Pattern.Unit,
		Scopes:   []ScopeSummary{},
		Skipped:  []IssueData{},
		Errors:   []IssueData{},
		Warnings: []IssueData{},
	}

	for _, s := range doc.Skipped {
		result.Skipped = append(result.Skipped, IssueData{Scope: s.Scope, Op: s.ID, Message: s.Err.Error()})
	}

	for _, scope := range doc.Pattern.Scopes() {
		summary := ScopeSummary{
			Name:       scope.Name,
			Operations: scope.Sketch.Len(),
			Kinds:      map[string]int{},
		}
		for _, op := range scope.Sketch.Operations() {
			summary.Kinds[op.Kind().String()]++
		}
		if o, err := outline.Sketch(scope.Name, scope.Sketch, nil); err != nil {
			a.logger.Warn("no outline", "scope", scope.Name, "error", err)
		} else if o.HasBounds {
			summary.Bounds = &BoundsData{
				MinX: o.Bounds.Min.X, MinY: o.Bounds.Min.Y,
				MaxX: o.Bounds.Max.X, MaxY: o.Bounds.Max.Y,
			}
		}
		result.Scopes = append(result.Scopes, summary)

		if !validate {
			continue
		}
		v := sketch.ValidateAll(scope.Sketch)
		for _, e := range v.Errors {
			result.Errors = append(result.Errors, issue(scope.Name, e))
		}
		for _, w := range v.Warnings {
			result.Warnings = append(result.Warnings, issue(scope.Name, w))
		}
	}
	return result
}

func issue(scope string, e sketch.ValidationError) IssueData {
	d := IssueData{Scope: scope, Message: e.Message}
	if e.Op != 0 {
		d.Op = e.Op.String()
	}
	return d
}

// Save writes the document's pattern to path.
func (a *App) Save(doc *valfmt.Document, path string) error {
	if err := valfmt.Write(path, doc.Pattern, nil); err != nil {
		return err
	}
	a.logger.Info("pattern written", "path", path)
	return nil
}

// Run executes the configured command and prints the report to w.
func (a *App) Run(w io.Writer) error {
	doc, err := a.Load(a.cfg.Input)
	if err != nil {
		return err
	}
	a.logger.Info("pattern loaded", "path", doc.Path, "scopes", len(doc.Pattern.Scopes()), "skipped", len(doc.Skipped))

	result := a.Evaluate(doc, a.cfg.Validate)
	if a.cfg.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else if err := printResult(w, result); err != nil {
		return err
	}

	if a.cfg.Output != "" {
		if err := a.Save(doc, a.cfg.Output); err != nil {
			return err
		}
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPattern, len(result.Errors))
	}
	return nil
}

func printResult(w io.Writer, r Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "pattern\t%s\t(%s)\n", r.Path, r.Unit)
	for _, s := range r.Scopes {
		fmt.Fprintf(tw, "scope\t%s\t%d operations", s.Name, s.Operations)
		if s.Bounds != nil {
			fmt.Fprintf(tw, "\t%.2f x %.2f", s.Bounds.MaxX-s.Bounds.MinX, s.Bounds.MaxY-s.Bounds.MinY)
		}
		fmt.Fprintln(tw)

		kinds := make([]string, 0, len(s.Kinds))
		for k := range s.Kinds {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(tw, "\t%s\t%d\n", k, s.Kinds[k])
		}
	}
	for _, group := range []struct {
		label  string
		issues []IssueData
	}{{"skipped", r.Skipped}, {"error", r.Errors}, {"warning", r.Warnings}} {
		for _, i := range group.issues {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", group.label, i.Scope, i.Op, i.Message)
		}
	}
	return tw.Flush()
}
