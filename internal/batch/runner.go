// Package batch applies the triage pipeline across a tabular patient file.
// It is a thin I/O boundary: one CSV row in, one result row out, with
// per-row failure isolation so a malformed row never aborts the run.
package batch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/acuity/internal/triage"
	"github.com/linnemanlabs/acuity/internal/vitals"
)

// regions is the fixed placeholder set for rows without a location.
var regions = []string{"North", "South", "East", "West", "Central"}

// outputHeader matches the triage output produced by the original pipeline.
var outputHeader = []string{
	"patient_id", "name", "age", "severity_score", "risk", "intervention", "location",
}

// Decider runs one record through the triage pipeline.
type Decider interface {
	Decide(ctx context.Context, rec *vitals.Record, ident triage.Identity) *triage.Decision
}

// RowError records one malformed input row.
type RowError struct {
	Line int
	Err  error
}

// Summary is the outcome of one batch run.
type Summary struct {
	Rows   int
	Failed int
	Errors []RowError
}

// Runner reads patient rows, triages them, and writes result rows.
type Runner struct {
	svc     Decider
	logger  log.Logger
	metrics *triage.Metrics

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRunner creates a batch runner. rng seeds the placeholder identifiers;
// nil gets a time-seeded source. metrics may be nil.
func NewRunner(svc Decider, logger log.Logger, metrics *triage.Metrics, rng *rand.Rand) *Runner {
	if logger == nil {
		logger = log.Nop()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Runner{
		svc:     svc,
		logger:  logger,
		metrics: metrics,
		rng:     rng,
	}
}

// Run consumes CSV rows from in and emits one result row per valid input
// row to out. Malformed rows are logged and collected on the summary; only
// unreadable input or unwritable output fails the whole run.
func (r *Runner) Run(ctx context.Context, in io.Reader, out io.Writer) (*Summary, error) {
	reader := csv.NewReader(in)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(outputHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	summary := &Summary{}
	line := 1

	for {
		raw, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			r.rowFailed(ctx, summary, line, err)
			continue
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(raw) {
				row[col] = raw[i]
			}
		}

		rec, err := vitals.FromRow(row)
		if err != nil {
			r.rowFailed(ctx, summary, line, err)
			continue
		}

		d := r.svc.Decide(ctx, rec, r.identity(row))

		record := []string{
			d.PatientID,
			d.Name,
			strconv.Itoa(d.Age),
			strconv.FormatFloat(d.Severity, 'g', -1, 64),
			string(d.Risk),
			string(d.Intervention),
			d.Location,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write row %d: %w", line, err)
		}

		summary.Rows++
		if r.metrics != nil {
			r.metrics.BatchRowsTotal.WithLabelValues("ok").Inc()
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush output: %w", err)
	}

	return summary, nil
}

// identity fills in caller-supplied identifiers from the row, generating
// placeholders for anything absent.
func (r *Runner) identity(row map[string]string) triage.Identity {
	ident := triage.Identity{
		PatientID: row["patient_id"],
		Name:      row["name"],
		Location:  row["location"],
	}
	if ident.PatientID == "" {
		ident.PatientID = fmt.Sprintf("PX%04d", 1000+r.intn(9000))
	}
	if ident.Name == "" {
		ident.Name = "Unknown"
	}
	if ident.Location == "" {
		ident.Location = regions[r.intn(len(regions))]
	}
	return ident
}

func (r *Runner) rowFailed(ctx context.Context, summary *Summary, line int, err error) {
	r.logger.Error(ctx, err, "skipping malformed row", "line", line)
	summary.Failed++
	summary.Errors = append(summary.Errors, RowError{Line: line, Err: err})
	if r.metrics != nil {
		r.metrics.BatchRowsTotal.WithLabelValues("error").Inc()
	}
}

func (r *Runner) intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}
