package filter

import (
	"sync"
	"testing"
	"time"

	"github.com/amonks/taskboard/api"
	"github.com/amonks/taskboard/internal/clock"
)

type recorder struct {
	queries []api.TaskQuery
}

func (r *recorder) sink(query api.TaskQuery) {
	r.queries = append(r.queries, query)
}

func newTestPipeline() (*Pipeline, *clock.Fake, *recorder) {
	c := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	r := &recorder{}
	return NewPipeline("b1", r.sink, Options{Clock: c}), c, r
}

func TestTitleTypingWithinQuietPeriodIssuesOneQuery(t *testing.T) {
	p, c, r := newTestPipeline()

	p.SetTitle("a")
	c.Advance(300 * time.Millisecond)
	p.SetTitle("ab")
	c.Advance(300 * time.Millisecond)
	p.SetTitle("abc")
	c.Advance(999 * time.Millisecond)
	if len(r.queries) != 0 {
		t.Fatalf("expected no query before quiet period, got %v", r.queries)
	}
	if got := p.Raw().Title; got != "abc" {
		t.Fatalf("expected raw title to update immediately, got %q", got)
	}

	c.Advance(time.Millisecond)
	if len(r.queries) != 1 {
		t.Fatalf("expected exactly one query, got %v", r.queries)
	}
	if got := r.queries[0]; got.Title != "abc" || got.BoardID != "b1" {
		t.Fatalf("unexpected query %+v", got)
	}
}

func TestTitleValuesSeparatedByQuietPeriodIssueTwoQueries(t *testing.T) {
	p, c, r := newTestPipeline()

	p.SetTitle("a")
	c.Advance(QuietPeriod + time.Millisecond)
	p.SetTitle("b")
	c.Advance(QuietPeriod + time.Millisecond)

	if len(r.queries) != 2 || r.queries[0].Title != "a" || r.queries[1].Title != "b" {
		t.Fatalf("expected queries for a then b, got %v", r.queries)
	}
}

func TestTextReturningToCommittedValueIssuesNoQuery(t *testing.T) {
	p, c, r := newTestPipeline()

	p.SetDescription("x")
	p.SetDescription("")
	c.Advance(QuietPeriod)
	if len(r.queries) != 0 {
		t.Fatalf("expected no query, got %v", r.queries)
	}
}

func TestTitleAndDescriptionDebounceIndependently(t *testing.T) {
	p, c, r := newTestPipeline()

	p.SetTitle("deploy")
	c.Advance(600 * time.Millisecond)
	p.SetDescription("prod")
	c.Advance(400 * time.Millisecond)
	if len(r.queries) != 1 || r.queries[0].Title != "deploy" || r.queries[0].Description != "" {
		t.Fatalf("expected title-only query, got %v", r.queries)
	}

	c.Advance(600 * time.Millisecond)
	if len(r.queries) != 2 || r.queries[1].Description != "prod" || r.queries[1].Title != "deploy" {
		t.Fatalf("expected combined query, got %v", r.queries)
	}
}

func TestDiscreteAxesApplyImmediately(t *testing.T) {
	p, _, r := newTestPipeline()

	p.SetStatus(api.StatusDone)
	p.SetStatus(api.StatusDone)
	p.SetAssignee("u1")
	if len(r.queries) != 2 {
		t.Fatalf("expected a query per change, got %v", r.queries)
	}
	if got := r.queries[1]; got.Status != api.StatusDone || got.AssigneeID != "u1" {
		t.Fatalf("unexpected query %+v", got)
	}

	p.SetStatus(StatusAll)
	if got := r.queries[2]; got.Status != "" {
		t.Fatalf("expected status omitted for all, got %+v", got)
	}
}

func TestNeutralQueryCarriesOnlyBoard(t *testing.T) {
	p, _, _ := newTestPipeline()

	query := p.Query()
	if query != (api.TaskQuery{BoardID: "b1"}) {
		t.Fatalf("expected board-only query, got %+v", query)
	}
	if values := query.Values(); len(values) != 1 {
		t.Fatalf("expected only boardId in values, got %v", values)
	}
	if p.Active() {
		t.Fatalf("expected neutral pipeline to be inactive")
	}
}

func TestClearResetsAxesAndIssuesOneQuery(t *testing.T) {
	p, c, r := newTestPipeline()

	p.SetStatus(api.StatusInProgress)
	p.SetAssignee("u1")
	p.SetTitle("pending")
	if !p.Active() {
		t.Fatalf("expected active pipeline")
	}
	r.queries = nil

	p.Clear()
	c.Advance(2 * QuietPeriod)

	if len(r.queries) != 1 {
		t.Fatalf("expected exactly one query, got %v", r.queries)
	}
	if r.queries[0] != (api.TaskQuery{BoardID: "b1"}) {
		t.Fatalf("expected neutral query, got %+v", r.queries[0])
	}
	if p.Active() || p.Raw() != Neutral() {
		t.Fatalf("expected neutral state after clear, got raw %+v", p.Raw())
	}
}

func TestClearOnNeutralPipelineStillQueries(t *testing.T) {
	p, _, r := newTestPipeline()

	p.Clear()
	if len(r.queries) != 1 {
		t.Fatalf("expected one query, got %v", r.queries)
	}
}

func TestCloseDropsPendingText(t *testing.T) {
	p, c, r := newTestPipeline()

	p.SetTitle("abandoned")
	p.Close()
	c.Advance(QuietPeriod)
	if len(r.queries) != 0 {
		t.Fatalf("expected no query after close, got %v", r.queries)
	}
	if p.Pending() {
		t.Fatalf("expected nothing pending after close")
	}
}

func TestQueriesReachSinkInCommitOrder(t *testing.T) {
	c := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	entered := make(chan struct{})
	release := make(chan struct{})

	var mu sync.Mutex
	var queries []api.TaskQuery
	first := true
	sink := func(query api.TaskQuery) {
		mu.Lock()
		block := first
		first = false
		mu.Unlock()
		if block {
			close(entered)
			<-release
		}
		mu.Lock()
		queries = append(queries, query)
		mu.Unlock()
	}
	p := NewPipeline("b1", sink, Options{Clock: c})

	p.SetTitle("a")
	fired := make(chan struct{})
	go func() {
		c.Advance(QuietPeriod)
		close(fired)
	}()
	<-entered

	statusSet := make(chan struct{})
	go func() {
		p.SetStatus(api.StatusDone)
		close(statusSet)
	}()
	select {
	case <-statusSet:
		t.Fatal("expected status change to wait for the pending query")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-fired
	<-statusSet

	mu.Lock()
	defer mu.Unlock()
	if len(queries) != 2 {
		t.Fatalf("expected two queries, got %v", queries)
	}
	last := queries[1]
	if last.Title != "a" || last.Status != api.StatusDone {
		t.Fatalf("expected last query to carry both axes, got %+v", last)
	}
}
