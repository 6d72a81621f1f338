// Package board owns the program working set and drives the grid: it loads
// the listing once, wires the filter controls and re-renders the container
// whenever a control changes.
//
// Lifecycle: Idle -> Loading -> Loaded | Failed. There is no way back to
// Loading; a new load needs a new Board.
package board

import (
	"context"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/garyellow/programs-board/internal/errors"
	"github.com/garyellow/programs-board/internal/logger"
	"github.com/garyellow/programs-board/internal/metrics"
	"github.com/garyellow/programs-board/internal/program"
	"github.com/garyellow/programs-board/internal/source"
)

// State is the board lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Render triggers, used as metric labels.
const (
	TriggerInitial = "initial"
	TriggerChange  = "change"
	TriggerReset   = "reset"
	TriggerRequest = "request"
)

// Default control values restored by Reset.
const (
	DefaultDifficulty = ""
	DefaultStipend    = ""
	DefaultSort       = "name"
)

// Options configures optional collaborators. Zero values are safe.
type Options struct {
	Logger  *logger.Logger
	Metrics *metrics.Metrics
	// ReportError forwards load failures to an error tracker.
	ReportError func(ctx context.Context, err error)
}

// Board is the controller for one program grid.
type Board struct {
	src    source.Source
	ports  Ports
	log    *logger.Logger
	stats  *metrics.Metrics
	report func(ctx context.Context, err error)

	load singleflight.Group

	mu       sync.RWMutex
	state    State
	programs []program.Program // written once, on a successful load
	wired    bool
}

// New creates an idle Board reading from src.
func New(src source.Source, ports Ports, opts Options) *Board {
	log := opts.Logger
	if log == nil {
		log = logger.NewWithWriter("error", io.Discard)
	}
	return &Board{
		src:    src,
		ports:  ports,
		log:    log.WithModule("board"),
		stats:  opts.Metrics,
		report: opts.ReportError,
	}
}

// Start loads the working set and performs the initial render. It retrieves
// the data at most once per Board: concurrent callers share the in-flight
// load, later callers get the settled state. Without a container the board
// stays Idle.
func (b *Board) Start(ctx context.Context) State {
	if b.ports.Container == nil {
		b.log.Debug("No container port, board disabled")
		return StateIdle
	}

	v, _, _ := b.load.Do("load", func() (any, error) {
		b.mu.Lock()
		if b.state != StateIdle {
			state := b.state
			b.mu.Unlock()
			return state, nil
		}
		b.setStateLocked(StateLoading)
		b.mu.Unlock()

		return b.fetchAndRender(ctx), nil
	})
	return v.(State)
}

func (b *Board) fetchAndRender(ctx context.Context) State {
	b.ports.Container.SetHTML(program.LoadingHTML)

	kind := string(b.src.Kind())
	start := time.Now()

	data, err := b.src.Fetch(ctx)
	var programs []program.Program
	if err == nil {
		programs, err = program.Decode(data)
	}
	elapsed := time.Since(start)

	if err != nil {
		b.log.WithError(err).
			WithField("source", b.src.String()).
			WithField("reason", errors.Summary(err)).
			WithField("duration_ms", elapsed.Milliseconds()).
			ErrorContext(ctx, "Failed to load programs")
		if b.report != nil {
			b.report(ctx, err)
		}
		b.recordFetch(kind, "error", elapsed)

		b.mu.Lock()
		b.setStateLocked(StateFailed)
		b.mu.Unlock()
		b.ports.Container.SetHTML(program.FailedHTML)
		return StateFailed
	}

	if len(programs) == 0 {
		b.log.WithField("source", b.src.String()).Warn("Data source returned no programs")
		b.recordFetch(kind, "empty", elapsed)

		b.mu.Lock()
		b.setStateLocked(StateLoaded)
		b.mu.Unlock()
		b.ports.Container.SetHTML(program.EmptyHTML)
		return StateLoaded
	}

	b.recordFetch(kind, "success", elapsed)
	b.stats.SetWorkingSetSize(len(programs))

	b.mu.Lock()
	b.programs = programs
	b.setStateLocked(StateLoaded)
	b.mu.Unlock()

	b.log.WithField("count", len(programs)).
		WithField("source", b.src.String()).
		WithField("duration_ms", elapsed.Milliseconds()).
		Info("Programs loaded")

	b.wire()
	b.render(TriggerInitial)
	return StateLoaded
}

// wire binds the control ports. It runs at most once.
func (b *Board) wire() {
	b.mu.Lock()
	if b.wired {
		b.mu.Unlock()
		return
	}
	b.wired = true
	b.mu.Unlock()

	onChange := func() { b.render(TriggerChange) }
	for _, sel := range []Selector{b.ports.Difficulty, b.ports.Stipend, b.ports.Sort} {
		if sel != nil {
			sel.OnChange(onChange)
		}
	}
	if b.ports.Reset != nil {
		b.ports.Reset.OnClick(b.Reset)
	}
}

// Apply re-renders the container from the current control values.
func (b *Board) Apply() {
	b.render(TriggerChange)
}

// Reset restores every control to its default and re-renders.
func (b *Board) Reset() {
	if b.ports.Difficulty != nil {
		b.ports.Difficulty.SetValue(DefaultDifficulty)
	}
	if b.ports.Stipend != nil {
		b.ports.Stipend.SetValue(DefaultStipend)
	}
	if b.ports.Sort != nil {
		b.ports.Sort.SetValue(DefaultSort)
	}
	b.render(TriggerReset)
}

// Filter derives the filter from the control ports.
func (b *Board) Filter() program.Filter {
	return program.ParseFilter(
		value(b.ports.Difficulty),
		value(b.ports.Stipend),
		value(b.ports.Sort),
	)
}

func (b *Board) render(trigger string) {
	if b.ports.Container == nil || !b.hasPrograms() {
		return
	}
	selected := b.Programs(b.Filter())
	b.ports.Container.SetHTML(program.RenderList(selected))
	b.recordRender(trigger, len(selected))
}

// View renders the grid for f without touching the ports. Before a
// successful load it returns the status fragment for the current state.
func (b *Board) View(f program.Filter) string {
	b.mu.RLock()
	state, programs := b.state, b.programs
	b.mu.RUnlock()

	switch state {
	case StateFailed:
		return program.FailedHTML
	case StateLoaded:
		if len(programs) == 0 {
			return program.EmptyHTML
		}
	default:
		return program.LoadingHTML
	}

	selected := program.Select(programs, f)
	b.recordRender(TriggerRequest, len(selected))
	return program.RenderList(selected)
}

// Programs returns the working set filtered and ordered by f. It never
// returns nil.
func (b *Board) Programs(f program.Filter) []program.Program {
	b.mu.RLock()
	programs := b.programs
	b.mu.RUnlock()
	return program.Select(programs, f)
}

// State returns the current lifecycle state.
func (b *Board) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Count returns the size of the working set.
func (b *Board) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.programs)
}

// Source describes where the board loads from.
func (b *Board) Source() string {
	return b.src.String()
}

func (b *Board) hasPrograms() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state == StateLoaded && len(b.programs) > 0
}

func (b *Board) setStateLocked(s State) {
	b.state = s
	b.stats.SetBoardState(int(s))
}

func (b *Board) recordFetch(kind, status string, elapsed time.Duration) {
	b.stats.RecordFetch(kind, status, elapsed.Seconds())
}

func (b *Board) recordRender(trigger string, cards int) {
	b.stats.RecordRender(trigger, cards)
}

func value(s Selector) string {
	if s == nil {
		return ""
	}
	return s.Value()
}
