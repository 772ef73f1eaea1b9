package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"copymatch/logger"

	"github.com/google/uuid"
)

const (
	EventCompleted = "comparison_completed"
	EventFailed    = "comparison_failed"
)

// Event is the webhook payload for one comparison
type Event struct {
	EventID        string         `json:"event_id"`
	EventType      string         `json:"event_type"`
	ReportID       string         `json:"report_id,omitempty"`
	InstanceID     string         `json:"instance_id"`
	Transport      string         `json:"transport"`
	Engine         string         `json:"engine,omitempty"`
	OverallScore   float64        `json:"overall_score"`
	Highlights     map[string]int `json:"highlights,omitempty"`
	DroppedMatches int            `json:"dropped_matches"`
	DurationMs     int64          `json:"duration_ms"`
	Error          string         `json:"error,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

// Tracker posts comparison events to a webhook without blocking the caller.
// A tracker without URL only counts.
type Tracker struct {
	url        string
	instanceID string
	httpClient *http.Client
	counters   *Counters
	wg         sync.WaitGroup
}

// NewTracker creates a tracker. dataDir keeps a stable instance ID across
// runs; empty means a fresh ID per process.
func NewTracker(url, dataDir string) *Tracker {
	return &Tracker{
		url:        url,
		instanceID: loadOrCreateInstanceID(dataDir),
		httpClient: &http.Client{Timeout: 5 * time.Second},
		counters:   &Counters{},
	}
}

// Counters returns the in-process counters
func (t *Tracker) Counters() *Counters {
	return t.counters
}

// InstanceID identifies this installation in webhook events
func (t *Tracker) InstanceID() string {
	return t.instanceID
}

// Track counts ev and sends it to the webhook
func (t *Tracker) Track(ev Event) {
	t.counters.observe(ev)

	if t.url == "" {
		return
	}
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	ev.InstanceID = t.instanceID
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	t.sendRequest(&ev)
}

// Flush waits for in-flight webhook requests
func (t *Tracker) Flush() {
	t.wg.Wait()
}

func (t *Tracker) sendRequest(ev *Event) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		body, err := json.Marshal(ev)
		if err != nil {
			logger.Debug("metrics: marshal error: %v", err)
			return
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST", t.url, bytes.NewReader(body))
		if err != nil {
			logger.Debug("metrics: create request error: %v", err)
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := t.httpClient.Do(httpReq)
		if err != nil {
			logger.Debug("metrics: send error: %v", err)
			return
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode >= 400 {
			logger.Debug("metrics: webhook returned %d for %s", resp.StatusCode, ev.EventType)
		} else {
			logger.Debug("metrics: sent %s (id=%s)", ev.EventType, ev.EventID)
		}
	}()
}

func loadOrCreateInstanceID(dataDir string) string {
	if dataDir == "" {
		return uuid.NewString()
	}

	idPath := filepath.Join(dataDir, "instance_id")

	data, err := os.ReadFile(idPath)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if _, perr := uuid.Parse(id); perr == nil {
			return id
		}
	}

	id := uuid.NewString()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logger.Warn("metrics: could not create data dir %s: %v", dataDir, err)
		return id
	}
	if err := os.WriteFile(idPath, []byte(id), 0o644); err != nil {
		logger.Warn("metrics: could not write instance_id: %v", err)
	}
	return id
}
