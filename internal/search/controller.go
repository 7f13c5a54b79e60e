// Package search is the typeahead location search component. Keystrokes are
// debounced, a new lookup cancels the one in flight and only the response to
// the most recent lookup is ever applied.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ngmaloney/stratus-terminal/internal/logger"
	"github.com/ngmaloney/stratus-terminal/internal/models"
)

// Searcher looks up candidate locations for a query
type Searcher interface {
	SearchLocations(ctx context.Context, query string) ([]models.Location, error)
}

// State is the controller's lifecycle state
type State int

const (
	Idle       State = iota // nothing typed or query too short
	Debouncing              // waiting for typing to settle
	InFlight                // lookup issued, awaiting response
	Applied                 // latest response applied to options
	Cancelled               // latest lookup was cancelled
	Failed                  // latest lookup failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Debouncing:
		return "debouncing"
	case InFlight:
		return "in-flight"
	case Applied:
		return "applied"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Options tunes the controller.
type Options struct {
	Debounce  time.Duration
	MinLength int
}

// DefaultOptions waits 300ms after the last keystroke and needs at least
// three characters before searching.
func DefaultOptions() Options {
	return Options{Debounce: 300 * time.Millisecond, MinLength: 3}
}

// Request is one issued lookup.
type Request struct {
	Seq    uint64
	Query  string
	cancel context.CancelFunc
}

// Cancel aborts the lookup if it is still running.
func (r Request) Cancel() {
	if r.cancel != nil {
		r.cancel()
	}
}

// debounceMsg fires when typing may have settled. Only the message carrying
// the current tag triggers a lookup.
type debounceMsg struct {
	id    int
	tag   int
	query string
}

// ResultMsg carries the outcome of a lookup back into the update loop.
type ResultMsg struct {
	id        int
	Seq       uint64
	Query     string
	Locations []models.Location
	Err       error
}

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

// Controller owns the search lifecycle. It must only be used from the Bubble
// Tea update loop.
type Controller struct {
	id       int
	searcher Searcher
	opts     Options

	query    string
	tag      int
	seq      uint64
	latest   *Request
	state    State
	options  []models.Location
	err      error
	disposed bool
}

// New creates a controller. Zero option fields fall back to DefaultOptions.
func New(searcher Searcher, opts Options) *Controller {
	def := DefaultOptions()
	if opts.Debounce <= 0 {
		opts.Debounce = def.Debounce
	}
	if opts.MinLength <= 0 {
		opts.MinLength = def.MinLength
	}
	return &Controller{
		id:       nextID(),
		searcher: searcher,
		opts:     opts,
	}
}

// ID identifies the controller's messages.
func (c *Controller) ID() int { return c.id }

// State returns the current lifecycle state.
func (c *Controller) State() State { return c.state }

// Options returns the candidate locations from the latest applied response.
func (c *Controller) Options() []models.Location { return c.options }

// Err returns the failure of the latest lookup, if any.
func (c *Controller) Err() error { return c.err }

// Query returns the last query passed to SetQuery.
func (c *Controller) Query() string { return c.query }

// Latest returns the request currently in flight, if any.
func (c *Controller) Latest() (Request, bool) {
	if c.latest == nil {
		return Request{}, false
	}
	return *c.latest, true
}

// SetQuery records new input and starts (or restarts) the debounce timer.
func (c *Controller) SetQuery(q string) tea.Cmd {
	if c.disposed {
		return nil
	}
	c.query = q
	c.tag++

	if len([]rune(strings.TrimSpace(q))) < c.opts.MinLength {
		c.reset()
		return nil
	}

	c.state = Debouncing
	id, tag := c.id, c.tag
	return tea.Tick(c.opts.Debounce, func(time.Time) tea.Msg {
		return debounceMsg{id: id, tag: tag, query: q}
	})
}

// Clear drops the query, cancels pending work and empties the options.
func (c *Controller) Clear() {
	if c.disposed {
		return
	}
	c.query = ""
	c.tag++
	c.reset()
}

// reset cancels any in-flight lookup and invalidates its sequence so a late
// response is discarded.
func (c *Controller) reset() {
	c.cancelLatest()
	c.seq++
	c.latest = nil
	c.options = nil
	c.err = nil
	c.state = Idle
}

// Dispose cancels any in-flight lookup. The controller ignores all later
// input and responses.
func (c *Controller) Dispose() {
	if c.disposed {
		return
	}
	c.cancelLatest()
	c.disposed = true
	c.tag++
}

// Disposed reports whether Dispose was called.
func (c *Controller) Disposed() bool { return c.disposed }

func (c *Controller) cancelLatest() {
	if c.latest != nil {
		c.latest.Cancel()
	}
}

// Update handles debounce and result messages addressed to this controller.
func (c *Controller) Update(msg tea.Msg) (*Controller, tea.Cmd) {
	if c.disposed {
		return c, nil
	}

	switch msg := msg.(type) {
	case debounceMsg:
		if msg.id != c.id || msg.tag != c.tag {
			return c, nil
		}
		return c, c.issue(msg.query)

	case ResultMsg:
		if msg.id != c.id {
			return c, nil
		}
		c.apply(msg)
	}

	return c, nil
}

func (c *Controller) issue(query string) tea.Cmd {
	c.cancelLatest()

	ctx, cancel := context.WithCancel(context.Background())
	c.seq++
	req := Request{Seq: c.seq, Query: query, cancel: cancel}
	c.latest = &req
	c.state = InFlight
	logger.Info("search issued seq=%d query=%q", req.Seq, query)

	id, searcher := c.id, c.searcher
	return func() tea.Msg {
		locations, err := searcher.SearchLocations(ctx, query)
		if err != nil && ctx.Err() != nil && !errors.Is(err, context.Canceled) {
			err = fmt.Errorf("%w: %w", context.Canceled, err)
		}
		return ResultMsg{id: id, Seq: req.Seq, Query: query, Locations: locations, Err: err}
	}
}

func (c *Controller) apply(msg ResultMsg) {
	if msg.Seq != c.seq {
		logger.Debug("discarding stale search result seq=%d latest=%d", msg.Seq, c.seq)
		return
	}

	// the request is finished; release its context
	c.cancelLatest()
	c.latest = nil

	switch {
	case msg.Err == nil:
		c.options = msg.Locations
		c.err = nil
		c.state = Applied
		logger.Debug("search seq=%d applied %d options", msg.Seq, len(msg.Locations))
	case errors.Is(msg.Err, context.Canceled):
		c.state = Cancelled
	default:
		c.options = nil
		c.err = msg.Err
		c.state = Failed
		logger.Warn("search seq=%d failed: %v", msg.Seq, msg.Err)
	}
}
