package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"ragchat/internal/domain"
)

type recorded struct {
	method, path string
	body         map[string]any
}

func fakeQdrant(t *testing.T) (*httptest.Server, func() []recorded) {
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path}
		if r.Body != nil && r.ContentLength != 0 {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		mu.Lock()
		reqs = append(reqs, rec)
		mu.Unlock()

		if r.Header.Get("api-key") != "secret" {
			t.Errorf("missing api key on %s %s", r.Method, r.URL.Path)
		}
		switch {
		case r.Method == http.MethodDelete:
			http.Error(w, "not found", http.StatusNotFound)
		case strings.HasSuffix(r.URL.Path, "/points/search"):
			_, _ = w.Write([]byte(`{"result":[
				{"score":0.9,"payload":{"chunk_id":"c2","index":2,"text":"second"}},
				{"score":0.4,"payload":{"chunk_id":"c0","index":0,"text":"first"}}]}`))
		default:
			_, _ = w.Write([]byte(`{"result":true}`))
		}
	}))
	return srv, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), reqs...)
	}
}

func TestStorageLifecycle(t *testing.T) {
	srv, requests := fakeQdrant(t)
	defer srv.Close()

	sessionID := uuid.NewString()
	s := NewStorage(Config{URL: srv.URL + "/", APIKey: "secret", Collection: "ragchat"}, sessionID)
	wantCollection := "ragchat_" + strings.ReplaceAll(sessionID, "-", "")
	if s.Collection() != wantCollection {
		t.Fatalf("collection = %s, want %s", s.Collection(), wantCollection)
	}

	ctx := context.Background()
	if err := s.Init(ctx, 3); err != nil {
		t.Fatalf("init: %v", err)
	}
	chunks := []domain.Chunk{{ID: uuid.NewString(), Index: 0, Text: "first"}, {ID: "not-a-uuid", Index: 1, Text: "second"}}
	if err := s.Upsert(ctx, chunks, [][]float64{{1, 0, 0}, {0, 1, 0}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	res, err := s.Search(ctx, []float64{0, 1, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 2 || res[0].Chunk.Text != "second" || res[0].Chunk.Index != 2 || res[0].Score != 0.9 {
		t.Errorf("unexpected results: %+v", res)
	}
	if err := s.Close(); err != nil {
		t.Errorf("close should ignore a missing collection: %v", err)
	}

	reqs := requests()
	var methods []string
	for _, r := range reqs {
		methods = append(methods, r.method)
	}
	want := "DELETE PUT PUT POST DELETE"
	if got := strings.Join(methods, " "); got != want {
		t.Errorf("request sequence = %s, want %s", got, want)
	}

	upsert := reqs[2].body["points"].([]any)
	for _, p := range upsert {
		id := p.(map[string]any)["id"].(string)
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("point id %q is not a UUID", id)
		}
	}
}

func TestStorageErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewStorage(Config{URL: srv.URL, Collection: "c"}, "")
	if err := s.Init(context.Background(), 2); err == nil {
		t.Error("expected error from failing server")
	}
	if _, err := s.Search(context.Background(), []float64{1, 0}, 1); err == nil {
		t.Error("expected search error")
	}
}
