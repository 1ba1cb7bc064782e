package pagetl

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// State is the phase of a Session's page lifecycle.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateBatching
	StateTranslating
	StateWritingBack
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateBatching:
		return "batching"
	case StateTranslating:
		return "translating"
	case StateWritingBack:
		return "writing_back"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is the translation engine for one page load. It owns the
// classifier verdicts, the scan cache and the scheduler; nothing is shared
// between sessions except what the caller passes in (provider, translation
// memory). A session is terminated only by Close.
//
// Verdicts and scan results are keyed by NodeID, which is only unique within
// one document. A session serves one document; call ClearCache before
// translating a different one.
type Session struct {
	scanOpts  ScanOptions
	logger    *slog.Logger
	scanner   *Scanner
	scheduler *Scheduler

	mu        sync.Mutex
	target    string
	state     State
	observing bool
	closed    bool
	stop      context.CancelFunc
	done      chan struct{}
}

// NewSession creates a Session translating into targetLang.
func NewSession(targetLang string, provider AIProvider, opts ...Option) *Session {
	st := newSettings(opts...)

	s := &Session{
		scanOpts: st.scan,
		logger:   st.logger,
		target:   targetLang,
	}

	classifier := NewClassifier(st.classifier)
	s.scanner = NewScanner(classifier,
		WithScanCacheCapacity(st.cacheCapacity),
		WithScannerLogger(st.logger),
	)

	schedCfg := st.scheduler
	userPhase := schedCfg.OnPhase
	schedCfg.OnPhase = func(state State) {
		s.setState(state)
		if userPhase != nil {
			userPhase(state)
		}
	}
	s.scheduler = NewScheduler(provider, schedCfg)
	return s
}

// Target returns the current target language.
func (s *Session) Target() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// SetTarget switches the target language for later dispatches. Content
// already written back is not reverted; run Translate on a fresh DOM for a
// full language switch.
func (s *Session) SetTarget(targetLang string) {
	s.mu.Lock()
	s.target = targetLang
	s.mu.Unlock()
}

// State returns the phase of the bulk pass. Trickle flushes run alongside
// and do not change it; see Flushing.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Flushing returns the number of trickle flushes in progress.
func (s *Session) Flushing() int {
	return s.scheduler.Flushing()
}

// Observing reports whether a mutation stream is being consumed.
func (s *Session) Observing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observing
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	if s.state != StateClosed {
		s.state = state
	}
	s.mu.Unlock()
}

// Scanner returns the session's scanner.
func (s *Session) Scanner() *Scanner {
	return s.scanner
}

// Scheduler returns the session's scheduler.
func (s *Session) Scheduler() *Scheduler {
	return s.scheduler
}

// Scan collects the translatable items under root with the session's
// scan options.
func (s *Session) Scan(root Node) []TranslatableItem {
	return s.scanner.Scan(root, s.scanOpts)
}

// Translate runs a bulk pass over root: scan, batch, translate and write
// back. Failures of individual batches are reported in the Report, not as
// an error.
func (s *Session) Translate(ctx context.Context, root Node) (Report, error) {
	_, rep, err := s.translate(ctx, root)
	return rep, err
}

func (s *Session) translate(ctx context.Context, root Node) ([]ItemResult, Report, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, Report{}, ErrClosed
	}
	target := s.target
	s.mu.Unlock()

	start := time.Now()
	s.setState(StateScanning)
	items := s.Scan(root)

	results, rep := s.scheduler.Schedule(ctx, items, target)
	s.setState(StateIdle)

	rep.Elapsed = time.Since(start)
	s.logger.Debug("pagetl: bulk pass done",
		"target", target, "items", rep.TotalItems, "batches", rep.Batches,
		"translated", rep.Translated, "cached", rep.Cached, "failed", rep.Failed)
	return results, rep, ctx.Err()
}

// OnNodesAdded scans every added node on its own and feeds the items to the
// trickle buffer.
func (s *Session) OnNodesAdded(nodes []Node) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	target := s.target
	s.mu.Unlock()

	opts := s.scanOpts
	opts.EnableCache = false

	var items []TranslatableItem
	for _, n := range nodes {
		items = append(items, s.scanner.Scan(n, opts)...)
	}
	if len(items) > 0 {
		s.scheduler.Enqueue(items, target)
	}
}

// OnNodesRemoved drops the verdicts held for the removed subtrees and
// clears the scan cache, whose entries may reference them.
func (s *Session) OnNodesRemoved(nodes []Node) {
	var ids []NodeID
	for _, root := range nodes {
		stack := []pendingNode{{node: root}}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if p.node == nil || p.depth > s.scanOpts.MaxDepth {
				continue
			}
			ids = append(ids, p.node.ID())
			stack = pushChildren(stack, p.node, p.depth+1)
		}
	}
	s.scanner.Classifier().Forget(ids...)
	s.scanner.ClearCache()
}

// Observe consumes mutations until ctx is done, events is closed or the
// session is closed. It returns immediately; only one stream can be
// observed at a time.
func (s *Session) Observe(ctx context.Context, events <-chan Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.observing {
		return ErrObserving
	}

	ctx, cancel := context.WithCancel(ctx)
	s.observing = true
	s.stop = cancel
	s.done = make(chan struct{})

	go s.observe(ctx, events, s.done)
	return nil
}

func (s *Session) observe(ctx context.Context, events <-chan Mutation, done chan struct{}) {
	defer close(done)
	defer func() {
		s.mu.Lock()
		s.observing = false
		s.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-events:
			if !ok {
				return
			}
			if len(m.Removed) > 0 {
				s.OnNodesRemoved(m.Removed)
			}
			if len(m.Added) > 0 {
				s.OnNodesAdded(m.Added)
			}
		}
	}
}

// Flush drains the trickle buffer now.
func (s *Session) Flush(ctx context.Context) Report {
	return s.scheduler.Flush(ctx)
}

// Wait blocks until all asynchronous trickle flushes have finished.
func (s *Session) Wait() {
	s.scheduler.Wait()
}

// ClearCache drops memoised scan results and verdicts. It must be called
// before the session is pointed at another document.
func (s *Session) ClearCache() {
	s.scanner.ClearCache()
	s.scanner.Classifier().Reset()
}

// Close disconnects the mutation stream, flushes the trickle buffer and
// waits for in-flight flushes. It is the session's only terminal transition.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	stop, done := s.stop, s.done
	s.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}

	rep := s.scheduler.Close(context.Background())
	if rep.TotalItems > 0 {
		s.logger.Debug("pagetl: flushed on close", "items", rep.TotalItems, "failed", rep.Failed)
	}

	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
	return nil
}
