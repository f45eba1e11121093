package core

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/youhavemail/yhm/internal/interval"
	"github.com/youhavemail/yhm/internal/utils"
)

// EventPollInterval is the SSE event name carrying a PollIntervalStatus.
const EventPollInterval = "poll_interval"

// RemotePollIntervalService implements PollIntervalService for a remote daemon.
type RemotePollIntervalService struct {
	BaseURL   string
	Client    *http.Client
	SSEClient *http.Client

	current atomic.Uint64
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewRemotePollIntervalService creates a new remote service instance.
func NewRemotePollIntervalService(baseURL string) *RemotePollIntervalService {
	ctx, cancel := context.WithCancel(context.Background())
	return &RemotePollIntervalService{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Client:    &http.Client{Timeout: 30 * time.Second},
		SSEClient: &http.Client{},
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *RemotePollIntervalService) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		defer func() { _ = resp.Body.Close() }()
		// Limit error body read to 1KB
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		msg := strings.TrimSpace(string(bodyBytes))
		if resp.StatusCode == http.StatusUnprocessableEntity {
			return nil, fmt.Errorf("%s: %w", msg, interval.ErrNotInCatalog)
		}
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, msg)
	}

	return resp, nil
}

// Refresh fetches the current interval from the daemon.
func (s *RemotePollIntervalService) Refresh(ctx context.Context) (uint64, error) {
	resp, err := s.doRequest(ctx, http.MethodGet, "/poll-interval", nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	var status PollIntervalStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return 0, err
	}
	s.current.Store(status.Seconds)
	return status.Seconds, nil
}

// PollInterval returns the last value seen from the daemon (0 before any).
func (s *RemotePollIntervalService) PollInterval() uint64 {
	return s.current.Load()
}

// SetPollInterval asks the daemon to change the interval. The new value comes
// back through the event stream.
func (s *RemotePollIntervalService) SetPollInterval(ctx context.Context, seconds uint64) error {
	if _, err := interval.Parse(seconds); err != nil {
		return err
	}
	if s.ctx.Err() != nil {
		return ErrServiceClosed
	}
	resp, err := s.doRequest(ctx, http.MethodPut, "/poll-interval", PollIntervalStatus{Seconds: seconds})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return nil
}

// Subscribe streams interval changes from the daemon's SSE endpoint,
// reconnecting with backoff until ctx or the service is done.
func (s *RemotePollIntervalService) Subscribe(ctx context.Context) (<-chan uint64, func(), error) {
	if s.ctx.Err() != nil {
		return nil, nil, ErrServiceClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan uint64, 1)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.streamWithReconnect(ctx, ch)
	}()
	return ch, cancel, nil
}

// Shutdown stops every stream.
func (s *RemotePollIntervalService) Shutdown() error {
	s.cancel()
	s.wg.Wait()
	return nil
}

func (s *RemotePollIntervalService) streamWithReconnect(ctx context.Context, ch chan uint64) {
	defer close(ch)
	backoff := 1 * time.Second
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ctx.Done():
			return
		default:
		}

		err := s.connectSSE(ctx, ch)
		if err == nil {
			return
		}
		utils.Debug("event stream dropped: %v (retrying in %s)", err, backoff)

		select {
		case <-s.ctx.Done():
			return
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (s *RemotePollIntervalService) connectSSE(ctx context.Context, ch chan uint64) error {
	// Tie the request to both the caller and the service lifetime.
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.ctx.Done():
			cancel()
		case <-reqCtx.Done():
		}
	}()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, s.BaseURL+"/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")

	resp, err := s.SSEClient.Do(req)
	if err != nil {
		if reqCtx.Err() != nil {
			return nil
		}
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to connect to event stream: %s", resp.Status)
	}

	reader := bufio.NewReader(resp.Body)
	for {
		eventType := ""
		var dataLines []string

		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if reqCtx.Err() != nil {
					return nil
				}
				return err
			}
			line = strings.TrimRight(line, "\r\n")

			// Blank line dispatches event
			if line == "" {
				break
			}
			// Comment/heartbeat
			if strings.HasPrefix(line, ":") {
				continue
			}
			if strings.HasPrefix(line, "event:") {
				eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
				continue
			}
			if strings.HasPrefix(line, "data:") {
				dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
			}
		}

		if eventType != EventPollInterval || len(dataLines) == 0 {
			continue
		}

		var status PollIntervalStatus
		if err := json.Unmarshal([]byte(strings.Join(dataLines, "\n")), &status); err != nil {
			continue
		}
		s.current.Store(status.Seconds)
		publishLatest(ch, status.Seconds)
	}
}
