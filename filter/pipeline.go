// Package filter turns filter-bar input into task queries for one board.
//
// Status and assignee apply immediately. Title and description are
// debounced so that typing produces one query per pause rather than one
// per keystroke.
package filter

import (
	"sync"
	"time"

	"github.com/amonks/taskboard/api"
	"github.com/amonks/taskboard/internal/clock"
)

// QuietPeriod is how long free-text input must rest before it is queried.
const QuietPeriod = 1000 * time.Millisecond

// StatusAll is the neutral status axis.
const StatusAll api.Status = "all"

// Sink receives every query the pipeline issues.
type Sink func(api.TaskQuery)

// Values holds the four filter axes.
type Values struct {
	Status      api.Status
	AssigneeID  string
	Title       string
	Description string
}

// Neutral returns the values of a cleared filter bar.
func Neutral() Values {
	return Values{Status: StatusAll}
}

// IsNeutral reports whether no axis restricts the query.
func (v Values) IsNeutral() bool {
	return v == Neutral()
}

// Options configures a Pipeline.
type Options struct {
	Clock clock.Clock

	// QuietPeriod overrides the debounce delay. Zero means QuietPeriod.
	QuietPeriod time.Duration
}

// Pipeline reconciles filter axes into queries against one board.
type Pipeline struct {
	boardID string
	sink    Sink

	// emitMu is held from building a query until the sink returns, so
	// the sink sees queries in the order the axes were committed.
	emitMu sync.Mutex

	mu        sync.Mutex
	raw       Values
	committed Values

	title       *Debouncer
	description *Debouncer
}

// NewPipeline returns a neutral pipeline for boardID. It issues no query
// until an axis changes.
func NewPipeline(boardID string, sink Sink, opts Options) *Pipeline {
	delay := opts.QuietPeriod
	if delay <= 0 {
		delay = QuietPeriod
	}
	p := &Pipeline{
		boardID:   boardID,
		sink:      sink,
		raw:       Neutral(),
		committed: Neutral(),
	}
	p.title = NewDebouncer(opts.Clock, delay, p.commitTitle)
	p.description = NewDebouncer(opts.Clock, delay, p.commitDescription)
	return p
}

// BoardID returns the board the pipeline is scoped to.
func (p *Pipeline) BoardID() string {
	return p.boardID
}

// SetStatus selects a status, or StatusAll. An empty status means StatusAll.
func (p *Pipeline) SetStatus(status api.Status) {
	if status == "" {
		status = StatusAll
	}
	p.commit(func(v *Values) bool {
		if v.Status == status {
			return false
		}
		v.Status = status
		return true
	}, true)
}

// SetAssignee selects an assignee id, or "" for anyone.
func (p *Pipeline) SetAssignee(assigneeID string) {
	p.commit(func(v *Values) bool {
		if v.AssigneeID == assigneeID {
			return false
		}
		v.AssigneeID = assigneeID
		return true
	}, true)
}

// SetTitle records title input. It is queried after the quiet period.
func (p *Pipeline) SetTitle(title string) {
	p.mu.Lock()
	p.raw.Title = title
	p.mu.Unlock()
	p.title.Trigger()
}

// SetDescription records description input. It is queried after the
// quiet period.
func (p *Pipeline) SetDescription(description string) {
	p.mu.Lock()
	p.raw.Description = description
	p.mu.Unlock()
	p.description.Trigger()
}

// Clear resets every axis and issues exactly one query.
func (p *Pipeline) Clear() {
	p.title.Stop()
	p.description.Stop()

	p.emitMu.Lock()
	defer p.emitMu.Unlock()
	p.mu.Lock()
	p.raw = Neutral()
	p.committed = Neutral()
	query := p.queryLocked()
	p.mu.Unlock()

	p.emit(query)
}

// Close cancels pending debounces without issuing a query.
func (p *Pipeline) Close() {
	p.title.Stop()
	p.description.Stop()
}

// Raw returns the axes as entered, before debouncing.
func (p *Pipeline) Raw() Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.raw
}

// Committed returns the axes the last query was built from.
func (p *Pipeline) Committed() Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.committed
}

// Active reports whether any axis is non-neutral, including text that is
// still waiting out the quiet period.
func (p *Pipeline) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.raw.IsNeutral() || !p.committed.IsNeutral()
}

// Pending reports whether a text axis is waiting out the quiet period.
func (p *Pipeline) Pending() bool {
	return p.title.Pending() || p.description.Pending()
}

// Query builds the query for the committed axes. Neutral axes are left
// out; the board is always included.
func (p *Pipeline) Query() api.TaskQuery {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queryLocked()
}

func (p *Pipeline) queryLocked() api.TaskQuery {
	query := api.TaskQuery{
		BoardID:     p.boardID,
		AssigneeID:  p.committed.AssigneeID,
		Title:       p.committed.Title,
		Description: p.committed.Description,
	}
	if p.committed.Status != StatusAll {
		query.Status = p.committed.Status
	}
	return query
}

func (p *Pipeline) commitTitle() {
	p.commit(func(v *Values) bool {
		if v.Title == p.raw.Title {
			return false
		}
		v.Title = p.raw.Title
		return true
	}, false)
}

func (p *Pipeline) commitDescription() {
	p.commit(func(v *Values) bool {
		if v.Description == p.raw.Description {
			return false
		}
		v.Description = p.raw.Description
		return true
	}, false)
}

// commit applies change to the committed values and issues a query when
// it reports a change. Discrete axes are mirrored into the raw values.
func (p *Pipeline) commit(change func(*Values) bool, discrete bool) {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()
	p.mu.Lock()
	if !change(&p.committed) {
		p.mu.Unlock()
		return
	}
	if discrete {
		p.raw.Status = p.committed.Status
		p.raw.AssigneeID = p.committed.AssigneeID
	}
	query := p.queryLocked()
	p.mu.Unlock()

	p.emit(query)
}

func (p *Pipeline) emit(query api.TaskQuery) {
	if p.sink != nil {
		p.sink(query)
	}
}
