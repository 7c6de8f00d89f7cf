package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vijaygopalbalasa/ZKRisk/internal/domain/models"
)

func testSequence(rows, cols int) models.FeatureSequence {
	seq := models.FeatureSequence{Rows: make([][]float32, rows)}
	for i := range seq.Rows {
		seq.Rows[i] = make([]float32, cols)
	}
	return seq
}

func TestPredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req predictReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Sequence) != 24 || len(req.Sequence[0]) != 5 {
			t.Errorf("sequence shape %dx%d, want 24x5", len(req.Sequence), len(req.Sequence[0]))
		}
		fmt.Fprint(w, `{"volatility":0.42,"model":"lstm-v1"}`)
	}))
	defer srv.Close()

	b := NewLSTMBackend(srv.URL, time.Second)
	vol, err := b.Predict(context.Background(), testSequence(24, 5))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if vol != 0.42 {
		t.Errorf("volatility = %v, want 0.42", vol)
	}
}

func TestPredictNonPositive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"volatility":0,"model":"lstm-v1"}`)
	}))
	defer srv.Close()

	b := NewLSTMBackend(srv.URL, time.Second)
	if _, err := b.Predict(context.Background(), testSequence(24, 5)); err == nil {
		t.Fatal("expected error for non-positive volatility")
	}
}

func TestPredictRetriesThenSucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"volatility":0.2,"model":"lstm-v1"}`)
	}))
	defer srv.Close()

	b := NewLSTMBackend(srv.URL, time.Second)
	vol, err := b.Predict(context.Background(), testSequence(24, 5))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if vol != 0.2 {
		t.Errorf("volatility = %v, want 0.2", vol)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestPredictServiceDown(t *testing.T) {
	b := NewLSTMBackend("http://127.0.0.1:1", 200*time.Millisecond)
	if _, err := b.Predict(context.Background(), testSequence(24, 5)); err == nil {
		t.Fatal("expected connection error")
	}
}
