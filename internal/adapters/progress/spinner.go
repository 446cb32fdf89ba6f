package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/portal-deployer/internal/usecase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SpinnerProgressReporter shows orchestration stages behind a spinner on stderr
type SpinnerProgressReporter struct {
	spinner *spinner.Spinner
	out     io.Writer
	stages  []stageInfo
	title   cases.Caser
}

type stageInfo struct {
	Stage     usecase.ExecutionStage
	StartTime time.Time
	EndTime   time.Time
	Message   string
	Failed    bool
}

// NewSpinnerProgressReporter creates a new spinner-based progress reporter
func NewSpinnerProgressReporter() *SpinnerProgressReporter {
	return newSpinnerProgressReporter(os.Stderr)
}

func newSpinnerProgressReporter(out io.Writer) *SpinnerProgressReporter {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.HideCursor = false

	return &SpinnerProgressReporter{
		spinner: s,
		out:     out,
		title:   cases.Title(language.English),
	}
}

// OnProgress handles progress events
func (r *SpinnerProgressReporter) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	if n := len(r.stages); n > 0 && r.stages[n-1].Stage != event.Stage {
		r.stages[n-1].EndTime = time.Now()
	}
	if n := len(r.stages); n == 0 || r.stages[n-1].Stage != event.Stage {
		r.stages = append(r.stages, stageInfo{Stage: event.Stage, StartTime: time.Now()})
	}
	r.stages[len(r.stages)-1].Message = event.Message

	if event.Stage == usecase.StageCompleted || !event.Spinner {
		if r.spinner.Active() {
			r.spinner.Stop()
		}
		return
	}

	r.spinner.Suffix = " " + r.display()
	if !r.spinner.Active() {
		r.spinner.Start()
	}
}

// Info prints an info message
func (r *SpinnerProgressReporter) Info(message string) {
	r.pause(func() { color.New(color.FgCyan).Fprintln(r.out, message) })
}

// Error stops the spinner for good and prints the trail with the running stage
// marked as failed
func (r *SpinnerProgressReporter) Error(message string) {
	if r.spinner.Active() {
		r.spinner.Stop()
	}
	if n := len(r.stages); n > 0 && r.stages[n-1].EndTime.IsZero() {
		r.stages[n-1].EndTime = time.Now()
		r.stages[n-1].Failed = true
	}
	line := message
	if len(r.stages) > 0 {
		line = r.display() + "  " + message
	}
	color.New(color.FgRed).Fprintln(r.out, line)
}

func (r *SpinnerProgressReporter) pause(print func()) {
	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}
	print()
	if wasActive {
		r.spinner.Start()
	}
}

// display renders the stage trail, e.g. "✓ Resolving → ● Submitting (2s) src/X.sol:X"
func (r *SpinnerProgressReporter) display() string {
	parts := make([]string, 0, len(r.stages))
	for _, stage := range r.stages {
		name := r.title.String(strings.ReplaceAll(string(stage.Stage), "-", " "))
		if stage.EndTime.IsZero() {
			running := fmt.Sprintf("● %s (%s)", color.New(color.FgYellow).Sprint(name), time.Since(stage.StartTime).Round(time.Second))
			if stage.Message != "" {
				running += " " + color.New(color.Faint).Sprint(stage.Message)
			}
			parts = append(parts, running)
			continue
		}
		if stage.Failed {
			parts = append(parts, fmt.Sprintf("✗ %s", color.New(color.FgRed).Sprint(name)))
			continue
		}
		parts = append(parts, fmt.Sprintf("✓ %s", color.New(color.FgGreen).Sprint(name)))
	}
	return strings.Join(parts, " → ")
}

var _ usecase.ProgressSink = (*SpinnerProgressReporter)(nil)
