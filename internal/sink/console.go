package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/naka-gawa/repo-vet/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console output formats.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatNDJSON = "ndjson"
)

// metricKeys lists the metric outputs in display order.
var metricKeys = []string{
	domain.KeyStars,
	domain.KeyWatchers,
	domain.KeyOpenIssues,
	domain.KeyForks,
	domain.KeyContributors,
	domain.KeyCommits,
	domain.KeyCommitsLastYear,
}

// Event is one NDJSON line.
type Event struct {
	Type  string `json:"type"`
	Key   string `json:"key,omitempty"`
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// ConsoleSink writes outputs for a human or a pipeline.
//
// Formats:
//   - text: a table rendered on Close
//   - json: a single object written on Close
//   - ndjson: one Event per output, streamed as it arrives
type ConsoleSink struct {
	writer io.Writer
	format string
	mu     sync.Mutex
	out    outputs
}

// NewConsoleSink returns a sink writing format to w (stdout when nil).
func NewConsoleSink(w io.Writer, format string) (*ConsoleSink, error) {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = FormatText
	}
	switch format {
	case FormatText, FormatJSON, FormatNDJSON:
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	return &ConsoleSink{writer: w, format: format}, nil
}

func (s *ConsoleSink) SetOutput(key string, value any) error {
	s.out.set(key, value)
	if s.format != FormatNDJSON {
		return nil
	}
	return s.encode(Event{Type: "output", Key: key, Value: value})
}

func (s *ConsoleSink) Fail(err error) error {
	s.out.fail(err)
	if s.format != FormatNDJSON {
		return nil
	}
	return s.encode(Event{Type: "failed", Error: err.Error()})
}

func (s *ConsoleSink) encode(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.NewEncoder(s.writer).Encode(e)
}

func (s *ConsoleSink) Close() error {
	s.out.mu.Lock()
	defer s.out.mu.Unlock()

	switch s.format {
	case FormatJSON:
		return s.writeJSON()
	case FormatText:
		return s.writeText()
	default:
		return nil
	}
}

func (s *ConsoleSink) writeJSON() error {
	doc := make(map[string]any, len(s.out.values)+1)
	for k, v := range s.out.values {
		doc[k] = v
	}
	if s.out.err != nil {
		doc["error"] = s.out.err.Error()
	}
	encoder := json.NewEncoder(s.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

func (s *ConsoleSink) writeText() error {
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()

	if repo, ok := s.out.values[domain.KeyRepo]; ok {
		if _, err := fmt.Fprintf(s.writer, "Repository: %v\n", repo); err != nil {
			return err
		}
	}

	var data [][]string
	for _, key := range metricKeys {
		r, ok := s.out.values[key].(domain.MetricResult)
		if !ok {
			continue
		}
		status := green("PASS")
		if !r.Pass {
			status = red("FAIL")
		}
		data = append(data, []string{key, r.DisplayCount(), status})
	}
	if len(data) > 0 {
		table := tablewriter.NewWriter(s.writer)
		table.Header([]string{"Metric", "Count", "Result"})
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	if s.out.err != nil {
		_, err := fmt.Fprintf(s.writer, "%s %v\n", red("ERROR"), s.out.err)
		return err
	}
	if pass, ok := s.out.values[domain.KeyFinalPass].(bool); ok {
		verdict := green("PASS")
		if !pass {
			verdict = red("FAIL")
		}
		_, err := fmt.Fprintf(s.writer, "Final verdict: %s\n", verdict)
		return err
	}
	return nil
}
