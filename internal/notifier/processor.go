package notifier

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/srhoton/step-alb-poc/internal/logger"
	"github.com/srhoton/step-alb-poc/internal/store"
)

// WorkflowInput is the declared input of a transition workflow execution.
// TransitionAt is ISO-8601 rather than epoch seconds: the workflow engine
// consumes absolute timestamps.
type WorkflowInput struct {
	WidgetID     string `json:"widget_id"`
	State        string `json:"state"`
	TransitionAt string `json:"transitionAt"`
}

// WorkflowStarter starts one external workflow execution under a
// deterministic name. Duplicate names must be rejected by the engine.
type WorkflowStarter interface {
	StartExecution(ctx context.Context, name string, input WorkflowInput) (string, error)
}

// Result summarizes one batch. Per-record failures land in Errors; the
// batch itself never fails.
type Result struct {
	ProcessedCount int      `json:"processed_count"`
	TotalRecords   int      `json:"total_records"`
	Errors         []string `json:"errors"`
}

// Processor turns eligible change records into workflow executions.
type Processor struct {
	log     *logger.Logger
	starter WorkflowStarter
	now     func() time.Time
}

func NewProcessor(baseLog *logger.Logger, starter WorkflowStarter) (*Processor, error) {
	if starter == nil {
		return nil, fmt.Errorf("workflow starter required")
	}
	var log *logger.Logger
	if baseLog != nil {
		log = baseLog.With("component", "ChangeNotifier")
	}
	return &Processor{log: log, starter: starter, now: time.Now}, nil
}

// Process handles records one at a time, in delivery order. Ineligible
// records are skipped silently; failing records are recorded and the rest of
// the batch continues.
func (p *Processor) Process(ctx context.Context, records []store.ChangeRecord) Result {
	result := Result{TotalRecords: len(records), Errors: []string{}}
	skipped := 0

	for _, rec := range records {
		if !shouldProcess(rec) {
			skipped++
			if p.log != nil {
				p.log.Debug("Skipping change record", "event_name", rec.EventName)
			}
			continue
		}

		input, err := extractWidgetData(rec)
		if err != nil {
			msg := fmt.Sprintf("error processing record: %v", err)
			if p.log != nil {
				p.log.Error(msg)
			}
			result.Errors = append(result.Errors, msg)
			continue
		}

		name := fmt.Sprintf("widget-%s-%d", input.WidgetID, p.now().Unix())
		if _, err := p.starter.StartExecution(ctx, name, input); err != nil {
			msg := fmt.Sprintf("error processing record: %v", err)
			if p.log != nil {
				p.log.Error(msg)
			}
			result.Errors = append(result.Errors, msg)
			continue
		}

		result.ProcessedCount++
		if p.log != nil {
			p.log.Info("Triggered transition workflow", "widget_id", input.WidgetID, "execution", name)
		}
	}

	if p.log != nil {
		p.log.Info("Batch processing complete",
			"processed_count", result.ProcessedCount,
			"total_records", result.TotalRecords,
			"skipped", skipped,
			"errors", len(result.Errors))
	}
	return result
}

// shouldProcess keeps only true inserts: INSERT kind, no old image (checked
// defensively), and a new image to extract from.
func shouldProcess(rec store.ChangeRecord) bool {
	if rec.EventName != store.EventInsert {
		return false
	}
	if rec.OldImage != nil {
		return false
	}
	return rec.NewImage != nil
}

// Epoch bounds of timestamps representable as four-digit ISO-8601 years.
const (
	minEpoch = -62135596800 // 0001-01-01T00:00:00Z
	maxEpoch = 253402300799 // 9999-12-31T23:59:59Z
)

func extractWidgetData(rec store.ChangeRecord) (WorkflowInput, error) {
	img := rec.NewImage

	widgetID, ok := img.String("PK")
	if !ok {
		return WorkflowInput{}, fmt.Errorf("missing or invalid PK (widget_id) in record")
	}
	state, ok := img.String("SK")
	if !ok {
		return WorkflowInput{}, fmt.Errorf("missing or invalid SK (state) in record")
	}
	raw, ok := img.Number("transitionAt")
	if !ok {
		return WorkflowInput{}, fmt.Errorf("missing or invalid transitionAt in record")
	}

	epoch, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return WorkflowInput{}, fmt.Errorf("transitionAt must be a valid number")
	}
	if math.IsNaN(epoch) || math.IsInf(epoch, 0) || epoch < minEpoch || epoch > maxEpoch {
		return WorkflowInput{}, fmt.Errorf("transitionAt must be a valid timestamp")
	}

	sec, frac := math.Modf(epoch)
	ts := time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()

	return WorkflowInput{
		WidgetID:     widgetID,
		State:        state,
		TransitionAt: ts.Format("2006-01-02T15:04:05-07:00"),
	}, nil
}
