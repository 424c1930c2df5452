package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jonwraymond/docexec/code"
	"github.com/jonwraymond/docexec/suite"
)

// Format selects the output of Write.
type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatMarkdown, FormatJSON:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown report format %q", code.ErrConfiguration, s)
	}
}

// Summary counts the results of a run.
type Summary struct {
	Documents int           `json:"documents"`
	Tests     int           `json:"tests"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	Errors    int           `json:"errors"`
	Duration  time.Duration `json:"duration"`
}

// OK reports whether nothing failed.
func (s Summary) OK() bool {
	return s.Failed == 0 && s.Errors == 0
}

// Summarize counts results. Errors are failures no test outcome accounts for.
func Summarize(results []*suite.Result) Summary {
	var s Summary
	for _, r := range results {
		s.Documents++
		s.Tests += len(r.Outcomes)
		s.Passed += r.Passed()
		s.Failed += r.Failed()
		s.Errors += len(uncovered(r))
		s.Duration += r.Duration
	}
	return s
}

// Write renders results to w in format f.
func Write(w io.Writer, results []*suite.Result, f Format) error {
	switch f {
	case FormatTable, FormatMarkdown:
		_, err := io.WriteString(w, renderTable(results, f)+"\n")
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newJSONReport(results))
	default:
		return fmt.Errorf("%w: unknown report format %q", code.ErrConfiguration, f)
	}
}

func renderTable(results []*suite.Result, f Format) string {
	tw := table.NewWriter()
	if f == FormatTable {
		tw.SetStyle(table.StyleLight)
	}
	tw.AppendHeader(table.Row{"Document", "Line", "Test", "Status", "Duration", "Detail"})
	for _, r := range results {
		for _, o := range r.Outcomes {
			status := "PASS"
			if !o.Passed {
				status = "FAIL"
			}
			tw.AppendRow(table.Row{r.Document, o.Line, o.Name, status, round(o.Duration), firstLine(o.Message())})
		}
		for _, fe := range uncovered(r) {
			tw.AppendRow(table.Row{r.Document, fe.Line, fe.Extension, "ERROR", "", firstLine(fe.Err.Error())})
		}
	}

	s := Summarize(results)
	tw.AppendFooter(table.Row{
		fmt.Sprintf("%d documents", s.Documents),
		"",
		fmt.Sprintf("%d tests", s.Tests),
		fmt.Sprintf("%d passed, %d failed, %d errors", s.Passed, s.Failed, s.Errors),
		round(s.Duration),
		"",
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, WidthMax: 72},
	})

	if f == FormatMarkdown {
		return tw.RenderMarkdown()
	}
	return tw.Render()
}

// uncovered returns the failures of r that no recorded outcome explains.
func uncovered(r *suite.Result) []*suite.RegionError {
	var out []*suite.RegionError
	for _, fe := range r.Failures {
		covered := false
		for _, o := range r.Outcomes {
			if !o.Passed && o.Err != nil && errors.Is(fe.Err, o.Err) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, fe)
		}
	}
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func round(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

type jsonReport struct {
	Summary   Summary        `json:"summary"`
	Documents []jsonDocument `json:"documents"`
}

type jsonDocument struct {
	Name       string        `json:"name"`
	OK         bool          `json:"ok"`
	Regions    int           `json:"regions"`
	CodeBlocks int           `json:"code_blocks"`
	DurationMs int64         `json:"duration_ms"`
	Outcomes   []jsonOutcome `json:"outcomes"`
	Failures   []jsonFailure `json:"failures,omitempty"`
}

type jsonOutcome struct {
	Name       string `json:"name"`
	Line       int    `json:"line"`
	Passed     bool   `json:"passed"`
	Message    string `json:"message,omitempty"`
	Stdout     string `json:"stdout,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

type jsonFailure struct {
	Line      int    `json:"line"`
	Extension string `json:"extension"`
	Message   string `json:"message"`
}

func newJSONReport(results []*suite.Result) jsonReport {
	rep := jsonReport{Summary: Summarize(results), Documents: []jsonDocument{}}
	for _, r := range results {
		doc := jsonDocument{
			Name:       r.Document,
			OK:         r.OK(),
			Regions:    r.Regions,
			CodeBlocks: r.CodeBlocks,
			DurationMs: r.Duration.Milliseconds(),
			Outcomes:   []jsonOutcome{},
		}
		for _, o := range r.Outcomes {
			doc.Outcomes = append(doc.Outcomes, jsonOutcome{
				Name:       o.Name,
				Line:       o.Line,
				Passed:     o.Passed,
				Message:    o.Message(),
				Stdout:     o.Stdout,
				DurationMs: o.Duration.Milliseconds(),
			})
		}
		for _, fe := range r.Failures {
			doc.Failures = append(doc.Failures, jsonFailure{
				Line:      fe.Line,
				Extension: fe.Extension,
				Message:   fe.Err.Error(),
			})
		}
		rep.Documents = append(rep.Documents, doc)
	}
	return rep
}
