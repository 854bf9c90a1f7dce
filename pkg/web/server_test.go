package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yaJ17/FootTraffic-Analyzer/pkg/engine"
	"github.com/yaJ17/FootTraffic-Analyzer/pkg/export"
)

// stubRegistry scripts registry behavior for handler tests.
type stubRegistry struct {
	startID  string
	startErr error
	stats    map[string]engine.StreamStats
	stopped  []string
}

func (r *stubRegistry) Start(id, identifier, location string, cfg engine.Config) (string, error) {
	if r.startErr != nil {
		return "", r.startErr
	}
	if id == "" {
		id = r.startID
	}
	return id, nil
}

func (r *stubRegistry) Stop(id string) error {
	r.stopped = append(r.stopped, id)
	return nil
}

func (r *stubRegistry) Stats(id string) (engine.StreamStats, error) {
	s, ok := r.stats[id]
	if !ok {
		return engine.StreamStats{}, engine.ErrUnknownStream
	}
	return s, nil
}

func (r *stubRegistry) List() []engine.StreamStats {
	out := make([]engine.StreamStats, 0, len(r.stats))
	for _, s := range r.stats {
		out = append(out, s)
	}
	return out
}

func TestHealth(t *testing.T) {
	srv := NewServer("0", &stubRegistry{})

	resp, err := srv.App().Test(httptest.NewRequest("GET", "/healthz", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestStartStream(t *testing.T) {
	reg := &stubRegistry{startID: "generated-id"}
	srv := NewServer("0", reg)

	body := strings.NewReader(`{"source": "videos/market.mp4"}`)
	req := httptest.NewRequest("POST", "/api/streams", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var got struct {
		ID       string `json:"id"`
		Location string `json:"location"`
	}
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != "generated-id" {
		t.Errorf("id = %q", got.ID)
	}
	if got.Location != "Divisoria" {
		t.Errorf("location = %q, want default applied", got.Location)
	}
}

func TestStartStream_MissingSource(t *testing.T) {
	srv := NewServer("0", &stubRegistry{})

	req := httptest.NewRequest("POST", "/api/streams", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestStartStream_Conflict(t *testing.T) {
	reg := &stubRegistry{startErr: engine.ErrStreamExists}
	srv := NewServer("0", reg)

	body := strings.NewReader(`{"id": "cam-1", "source": "videos/market.mp4"}`)
	req := httptest.NewRequest("POST", "/api/streams", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 409 {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestStopStream_Idempotent(t *testing.T) {
	reg := &stubRegistry{}
	srv := NewServer("0", reg)

	resp, err := srv.App().Test(httptest.NewRequest("DELETE", "/api/streams/cam-1", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 204 {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if len(reg.stopped) != 1 || reg.stopped[0] != "cam-1" {
		t.Errorf("stopped = %v", reg.stopped)
	}
}

func TestStreamStats(t *testing.T) {
	reg := &stubRegistry{stats: map[string]engine.StreamStats{
		"cam-1": {
			Stats:  export.Stats{StreamID: "cam-1", Location: "Divisoria", PeopleCount: 3},
			Status: engine.StatusRunning,
		},
	}}
	srv := NewServer("0", reg)

	resp, err := srv.App().Test(httptest.NewRequest("GET", "/api/streams/cam-1/stats", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got engine.StreamStats
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.PeopleCount != 3 || got.Status != engine.StatusRunning {
		t.Errorf("stats = %+v", got)
	}
}

func TestStreamStats_Unknown(t *testing.T) {
	srv := NewServer("0", &stubRegistry{})

	resp, err := srv.App().Test(httptest.NewRequest("GET", "/api/streams/nope/stats", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHistory_Disabled(t *testing.T) {
	srv := NewServer("0", &stubRegistry{})

	resp, err := srv.App().Test(httptest.NewRequest("GET", "/api/history", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 501 {
		t.Errorf("status = %d, want 501 without a database sink", resp.StatusCode)
	}
}

func TestHistory(t *testing.T) {
	srv := NewServer("0", &stubRegistry{})
	var gotLocation string
	var gotLimit int
	srv.History = func(_ context.Context, location string, limit int) ([]export.Stats, error) {
		gotLocation = location
		gotLimit = limit
		return []export.Stats{{StreamID: "cam-1", Location: location, PeopleCount: 2}}, nil
	}

	req := httptest.NewRequest("GET", "/api/history?location=Palengke+Market&limit=10", nil)
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if gotLocation != "Palengke Market" || gotLimit != 10 {
		t.Errorf("query passed as location=%q limit=%d", gotLocation, gotLimit)
	}

	var got []export.Stats
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 || got[0].PeopleCount != 2 {
		t.Errorf("records = %+v", got)
	}
}

var _ export.Sink = (*Server)(nil)
