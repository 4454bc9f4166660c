package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/orbweave/orbweave/pkg/cache"
	"github.com/orbweave/orbweave/pkg/mindmap"
	"github.com/orbweave/orbweave/pkg/pipeline"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	s := New(pipeline.NewRunner(nil, nil, logger), logger)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return ts
}

func requestBody(children int) []byte {
	req := arrangeRequest{
		RootEntry: mindmap.Entry{ID: "R"},
		Entries:   []mindmap.Entry{{ID: "R"}},
	}
	for i := 0; i < children; i++ {
		id := fmt.Sprintf("c%d", i)
		req.Entries = append(req.Entries, mindmap.Entry{ID: id})
		req.Connections = append(req.Connections, mindmap.Connection{SourceID: "R", TargetID: id})
	}
	data, _ := json.Marshal(req)
	return data
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestArrangeSync(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/arrange", "application/json", bytes.NewReader(requestBody(4)))
	if err != nil {
		t.Fatalf("POST /arrange: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		MapHash      string                     `json:"mapHash"`
		NewPositions map[string][3]float64      `json:"newPositions"`
		Updated      []map[string]any           `json:"updatedEntries"`
	}
	decodeBody(t, resp, &body)
	if len(body.NewPositions) != 4 {
		t.Errorf("positions = %d, want 4", len(body.NewPositions))
	}
	if body.MapHash == "" {
		t.Error("mapHash empty")
	}
}

func TestArrangeRejectsBadInput(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"MalformedJSON", "{not json", "INVALID_INPUT"},
		{"MissingRoot", `{"entries":[],"connections":[]}`, "INVALID_ENTRY"},
		{
			"UnknownEndpoint",
			`{"rootEntry":{"id":"R"},"entries":[{"id":"R"}],"connections":[{"sourceId":"R","targetId":"ghost"}]}`,
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/v1/arrange", "application/json", bytes.NewReader([]byte(tt.body)))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			var body map[string]string
			decodeBody(t, resp, &body)
			if body["error"] == "" {
				t.Error("error message missing")
			}
			if tt.wantCode != "" && body["code"] != tt.wantCode {
				t.Errorf("code = %q, want %q", body["code"], tt.wantCode)
			}
		})
	}
}

func TestJobLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/jobs", "application/json", bytes.NewReader(requestBody(10)))
	if err != nil {
		t.Fatalf("POST /jobs: %v", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	var created jobSnapshot
	decodeBody(t, resp, &created)
	if created.ID == "" {
		t.Fatal("job id empty")
	}

	// Poll until the job finishes.
	deadline := time.Now().Add(30 * time.Second)
	var final jobSnapshot
	for {
		if time.Now().After(deadline) {
			t.Fatal("job did not finish in time")
		}
		resp, err := http.Get(ts.URL + "/api/v1/jobs/" + created.ID)
		if err != nil {
			t.Fatalf("GET /jobs/{id}: %v", err)
		}
		decodeBody(t, resp, &final)
		if final.Status != JobRunning {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if final.Status != JobComplete {
		t.Fatalf("status = %q, error = %q", final.Status, final.Error)
	}
	if final.Progress != 1 {
		t.Errorf("progress = %v, want 1", final.Progress)
	}
	if final.Result == nil || len(final.Result.NewPositions) != 10 {
		t.Errorf("result = %+v, want 10 positions", final.Result)
	}
}

func TestJobNotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/jobs/no-such-job")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["code"] != "JOB_NOT_FOUND" {
		t.Errorf("code = %q", body["code"])
	}
}

func TestJobDelete(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/jobs", "application/json", bytes.NewReader(requestBody(50)))
	if err != nil {
		t.Fatalf("POST /jobs: %v", err)
	}
	var created jobSnapshot
	decodeBody(t, resp, &created)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/jobs/"+created.ID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}

	// Gone after deletion.
	resp, err = http.Get(ts.URL + "/api/v1/jobs/" + created.ID)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status after delete = %d, want 404", resp.StatusCode)
	}

	// Deleting again reports not found.
	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/jobs/"+created.ID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("second DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
}

func TestJobSnapshotOutlivesRegistry(t *testing.T) {
	logger := log.NewWithOptions(io.Discard, log.Options{})
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	s := New(pipeline.NewRunner(fc, nil, logger), logger)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	resp, err := http.Post(ts.URL+"/api/v1/jobs", "application/json", bytes.NewReader(requestBody(10)))
	if err != nil {
		t.Fatalf("POST /jobs: %v", err)
	}
	var created jobSnapshot
	decodeBody(t, resp, &created)

	deadline := time.Now().Add(30 * time.Second)
	var final jobSnapshot
	for {
		if time.Now().After(deadline) {
			t.Fatal("job did not finish in time")
		}
		resp, err := http.Get(ts.URL + "/api/v1/jobs/" + created.ID)
		if err != nil {
			t.Fatalf("GET /jobs/{id}: %v", err)
		}
		decodeBody(t, resp, &final)
		if final.Status != JobRunning {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if final.Status != JobComplete {
		t.Fatalf("status = %q, error = %q", final.Status, final.Error)
	}

	// Drop the job from the registry, as the retention sweep would.
	s.jobs.mu.Lock()
	delete(s.jobs.jobs, created.ID)
	s.jobs.mu.Unlock()

	resp, err = http.Get(ts.URL + "/api/v1/jobs/" + created.ID)
	if err != nil {
		t.Fatalf("GET after eviction: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status after eviction = %d, want 200", resp.StatusCode)
	}
	var cached jobSnapshot
	decodeBody(t, resp, &cached)
	if cached.Status != JobComplete {
		t.Errorf("cached status = %q, want complete", cached.Status)
	}
	if cached.Result == nil || len(cached.Result.NewPositions) != 10 {
		t.Errorf("cached result = %+v, want 10 positions", cached.Result)
	}

	// DELETE clears the persisted snapshot as well.
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/jobs/"+created.ID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/v1/jobs/" + created.ID)
	if err != nil {
		t.Fatalf("GET after delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status after delete = %d, want 404", resp.StatusCode)
	}
}
