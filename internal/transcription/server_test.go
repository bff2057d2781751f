package transcription

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"dualsub/internal/retry"
	"dualsub/internal/services"
)

func TestServerRecognizeSendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != transcriptionsPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format = %q", got)
		}
		if got := r.FormValue("language"); got != "de" {
			t.Errorf("language = %q", got)
		}
		if got := r.FormValue("beam_size"); got != "5" {
			t.Errorf("beam_size = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			defer file.Close()
			if header.Size < 44 {
				t.Errorf("wav upload too small: %d bytes", header.Size)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" Guten Tag ","language":"german"}`))
	}))
	defer srv.Close()

	r := NewServerRecognizer(ServerConfig{BaseURL: srv.URL + "/", Token: "secret"})
	rec, err := r.Recognize(context.Background(), Request{Clip: oneSecondClip(), Language: "deu", BeamSize: 5})
	if err != nil {
		t.Fatalf("Recognize returned error: %v", err)
	}
	if rec.Text != "Guten Tag" || rec.Language != "german" {
		t.Fatalf("unexpected recognition %+v", rec)
	}
}

func TestServerRecognizeStatusClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{"server error", http.StatusBadGateway, true},
		{"rate limited", http.StatusTooManyRequests, true},
		{"bad request", http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			r := NewServerRecognizer(ServerConfig{BaseURL: srv.URL})
			_, err := r.Recognize(context.Background(), Request{Clip: oneSecondClip()})
			var statusErr *retry.StatusError
			if !errors.As(err, &statusErr) || statusErr.StatusCode != tt.status {
				t.Fatalf("expected status error %d, got %v", tt.status, err)
			}
			if services.IsTransient(err) != tt.transient {
				t.Fatalf("transient = %v, want %v", services.IsTransient(err), tt.transient)
			}
		})
	}
}

func TestServerPing(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/v1/models" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	if err := NewServerRecognizer(ServerConfig{BaseURL: srv.URL}).Ping(context.Background()); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one request, got %d", hits.Load())
	}
}

func TestServerPingUnreachableIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewServerRecognizer(ServerConfig{BaseURL: url}).Ping(context.Background())
	if !services.IsTransient(err) {
		t.Fatalf("expected transient connect error, got %v", err)
	}
}
