package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/FranksOps/shopsift/internal/classify"
	"github.com/FranksOps/shopsift/internal/discovery"
	"github.com/FranksOps/shopsift/internal/probe"
)

// Summary contains aggregated counts about one pipeline run.
type Summary struct {
	Pipeline string         `json:"pipeline"`
	Total    int            `json:"total"`
	Outcomes map[string]int `json:"outcomes"`
	// Labels counts pipeline-specific results: likely/unlikely,
	// valid/verifypass, listed.
	Labels    map[string]int `json:"labels"`
	Gates     map[string]int `json:"gates,omitempty"`
	Files     []string       `json:"files,omitempty"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Duration  time.Duration  `json:"duration"`
}

func newSummary(pipeline string, start time.Time) Summary {
	end := time.Now()
	return Summary{
		Pipeline:  pipeline,
		Outcomes:  make(map[string]int),
		Labels:    make(map[string]int),
		Gates:     make(map[string]int),
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start).Round(time.Millisecond),
	}
}

// Locale summarises classification records.
func Locale(records []classify.Record, start time.Time) Summary {
	s := newSummary("locale", start)
	for _, r := range records {
		s.Total++
		s.Outcomes[string(r.Outcome)]++
		s.Labels[r.Classification]++
	}
	return s
}

// Probe summarises probe records.
func Probe(records []probe.Record, start time.Time) Summary {
	s := newSummary("probe", start)
	for _, r := range records {
		s.Total++
		s.Outcomes[string(r.Outcome)]++
		if r.Valid {
			s.Labels["valid"]++
		}
		if r.HasIntegration {
			s.Labels["verifypass"]++
		}
		if r.Gate != "" {
			s.Gates[string(r.Gate)]++
		}
	}
	return s
}

// Discovery summarises a discovery run. Total counts pages.
func Discovery(res *discovery.Result, start time.Time) Summary {
	s := newSummary("discovery", start)
	s.Total = res.LastPage
	s.Outcomes["ok"] = res.LastPage - len(res.FailedPages)
	if n := len(res.FailedPages); n > 0 {
		s.Outcomes["failed"] = n
	}
	s.Labels["listed"] = len(res.Listings)
	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `shopsift {{.Pipeline}} summary
{{rule .Pipeline}}
Time:      {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Duration:  {{.Duration}}
Total:     {{.Total}}

Outcomes:
{{- range $name, $count := .Outcomes}}
  {{$name}}: {{$count}}
{{- else}}
  None
{{- end}}

Results:
{{- range $name, $count := .Labels}}
  {{$name}}: {{$count}}
{{- else}}
  None
{{- end}}
{{- if .Gates}}

Gates:
{{- range $name, $count := .Gates}}
  {{$name}}: {{$count}}
{{- end}}
{{- end}}
{{- if .Files}}

Files:
{{- range .Files}}
  {{.}}
{{- end}}
{{- end}}
`

	t, err := template.New("textReport").Funcs(template.FuncMap{
		"rule": func(name string) string { return strings.Repeat("-", len("shopsift  summary")+len(name)) },
	}).Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("parse summary template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	return nil
}

// Write renders the summary as "json" or, for any other format, text.
func Write(w io.Writer, format string, summary Summary) error {
	if strings.EqualFold(format, "json") {
		return WriteJSON(w, summary)
	}
	return WriteText(w, summary)
}
