package adminhttp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeStats struct{}

func (fakeStats) EntryCount() int         { return 3 }
func (fakeStats) TotalSize() uint64       { return 42 }
func (fakeStats) ConnectionCount() int    { return 1 }
func (fakeStats) Connections() []string   { return []string{"127.0.0.1:9999"} }

func TestHandleStats(t *testing.T) {
	s := New(":0", fakeStats{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	s.handleStats(rec, req)

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["entries"].(float64) != 3 {
		t.Fatalf("entries = %v", body["entries"])
	}
	if body["bytes"].(float64) != 42 {
		t.Fatalf("bytes = %v", body["bytes"])
	}
}
