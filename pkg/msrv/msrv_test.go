package msrv

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestEngine(handler http.HandlerFunc) (*Engine, func()) {
	srv := httptest.NewServer(handler)
	e := NewEngine().SetConfig(Config{URL: srv.URL, Secret: "s3cret"})
	return &e, srv.Close
}

func TestPlayURL(t *testing.T) {
	e, done := newTestEngine(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != playPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["secret"] != "s3cret" {
			t.Error("secret not forwarded")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"msg":  "success",
			"data": map[string]any{"url": "http://media.local/cam1/a.mp4"},
		})
	})
	defer done()

	url, err := e.PlayURL(context.Background(), "cam1", "cam1/a.mp4")
	if err != nil {
		t.Fatalf("PlayURL: %v", err)
	}
	if url != "http://media.local/cam1/a.mp4" {
		t.Fatalf("got %q", url)
	}
}

func TestPlayURLNotFound(t *testing.T) {
	e, done := newTestEngine(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"code": -500, "msg": "gone"})
	})
	defer done()

	_, err := e.PlayURL(context.Background(), "cam1", "cam1/a.mp4")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestPlayURLForbidden(t *testing.T) {
	e, done := newTestEngine(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"code": -300, "msg": "bad secret"})
	})
	defer done()

	_, err := e.PlayURL(context.Background(), "cam1", "cam1/a.mp4")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("got %v", err)
	}
}

func TestPlayURLUnavailable(t *testing.T) {
	e, done := newTestEngine(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer done()

	_, err := e.PlayURL(context.Background(), "cam1", "cam1/a.mp4")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("got %v", err)
	}
}

func TestRecordExists(t *testing.T) {
	e, done := newTestEngine(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"msg":  "success",
			"data": map[string]any{"exist": true},
		})
	})
	defer done()

	ok, err := e.RecordExists(context.Background(), "cam1", "cam1/a.mp4")
	if err != nil || !ok {
		t.Fatalf("got ok=%v err=%v", ok, err)
	}
}
