package core

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/youhavemail/yhm/internal/interval"
	"github.com/youhavemail/yhm/internal/metrics"
	"github.com/youhavemail/yhm/internal/store"
	"github.com/youhavemail/yhm/internal/utils"
)

const pollIntervalKey = "poll_interval"

// LocalPollIntervalService implements PollIntervalService in-process, keeping
// the value in the sqlite store.
type LocalPollIntervalService struct {
	store   *store.Store
	metrics *metrics.Metrics

	// writeMu orders persist+broadcast so the stored and published values agree.
	writeMu sync.Mutex

	mu      sync.RWMutex
	current uint64
	subs    map[int]chan uint64
	nextID  int
	closed  bool
}

// NewLocalPollIntervalService loads the persisted interval, falling back to
// interval.DefaultInterval when nothing valid is stored. m may be nil.
func NewLocalPollIntervalService(ctx context.Context, st *store.Store, m *metrics.Metrics) (*LocalPollIntervalService, error) {
	current := interval.DefaultInterval.Seconds()

	raw, ok, err := st.Get(ctx, pollIntervalKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load poll interval: %w", err)
	}
	if ok {
		v, perr := strconv.ParseUint(raw, 10, 64)
		if perr == nil {
			if _, cerr := interval.Parse(v); cerr == nil {
				current = v
			} else {
				utils.Error("ignoring stored poll interval %d: %v", v, cerr)
			}
		} else {
			utils.Error("ignoring unparsable stored poll interval %q", raw)
		}
	}

	if m != nil {
		m.PollIntervalSeconds.Set(float64(current))
	}

	return &LocalPollIntervalService{
		store:   st,
		metrics: m,
		current: current,
		subs:    make(map[int]chan uint64),
	}, nil
}

func (s *LocalPollIntervalService) PollInterval() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe registers a listener. The subscription also ends when ctx is done.
func (s *LocalPollIntervalService) Subscribe(ctx context.Context) (<-chan uint64, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, nil, ErrServiceClosed
	}
	id := s.nextID
	s.nextID++
	ch := make(chan uint64, 1)
	ch <- s.current
	s.subs[id] = ch
	count := len(s.subs)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.Subscribers.Set(float64(count))
	}

	var once sync.Once
	done := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(done)
			s.unsubscribe(id)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	return ch, cancel, nil
}

func (s *LocalPollIntervalService) unsubscribe(id int) {
	s.mu.Lock()
	ch, ok := s.subs[id]
	if ok {
		delete(s.subs, id)
		close(ch)
	}
	count := len(s.subs)
	s.mu.Unlock()

	if ok && s.metrics != nil {
		s.metrics.Subscribers.Set(float64(count))
	}
}

// SetPollInterval validates, persists and broadcasts a new interval.
func (s *LocalPollIntervalService) SetPollInterval(ctx context.Context, seconds uint64) error {
	if _, err := interval.Parse(seconds); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrServiceClosed
	}

	if err := s.store.Set(ctx, pollIntervalKey, strconv.FormatUint(seconds, 10)); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServiceClosed
	}
	s.current = seconds
	for _, ch := range s.subs {
		publishLatest(ch, seconds)
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.PollIntervalUpdates.Inc()
		s.metrics.PollIntervalSeconds.Set(float64(seconds))
	}
	utils.Info("poll interval set to %ds", seconds)
	return nil
}

// Shutdown closes every subscription. The store is owned by the caller.
func (s *LocalPollIntervalService) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	if s.metrics != nil {
		s.metrics.Subscribers.Set(0)
	}
	return nil
}

// publishLatest replaces whatever is buffered in ch with v. Only one goroutine
// may send on ch at a time.
func publishLatest(ch chan uint64, v uint64) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
