package transcribe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeClip(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(p, []byte("RIFFfake"), 0o644); err != nil {
		t.Fatalf("write clip: %v", err)
	}
	return p
}

func TestRemoteTranscribeWithImmediateResult(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/text", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("halló heimur"))
	})
	mux.HandleFunc("/transcribe", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("language"); got != "is-IS" {
			t.Errorf("language field = %q", got)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("file field missing: %v", err)
		}
		var resp PublishResponse
		resp.Code = 200
		resp.Data.Status = "Success"
		resp.Data.TranscriptionURL = srv.URL + "/text"
		_ = json.NewEncoder(w).Encode(resp)
	})

	r := NewRemote(srv.URL, "is-IS")
	text, err := r.Transcribe(context.Background(), writeClip(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "halló heimur" {
		t.Fatalf("text = %q", text)
	}
}

func TestRemoteTranscribePollsUntilSuccess(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/text", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("niðurstaða"))
	})
	mux.HandleFunc("/transcribe", func(w http.ResponseWriter, r *http.Request) {
		var resp PublishResponse
		resp.Code = 200
		resp.Data.MediaId = "m-1"
		resp.Data.Status = "Queued"
		_ = json.NewEncoder(w).Encode(resp)
	})
	polls := 0
	mux.HandleFunc("/getstatus", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("mediaId"); got != "m-1" {
			t.Errorf("mediaId = %q", got)
		}
		polls++
		var s StatusResponse
		s.Code = 200
		if polls < 2 {
			s.Data.Status = "Processing"
		} else {
			s.Data.Status = "Success"
			s.Data.TranscriptionTextURL = srv.URL + "/text"
		}
		_ = json.NewEncoder(w).Encode(s)
	})

	r := NewRemote(srv.URL, "is-IS")
	text, err := r.Transcribe(context.Background(), writeClip(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "niðurstaða" {
		t.Fatalf("text = %q", text)
	}
	if polls < 2 {
		t.Fatalf("polled %d times, want at least 2", polls)
	}
}

func TestRemoteTranscribeReportsPublishFailure(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/transcribe", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(PublishResponse{Code: 400, Reason: "unsupported media"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := NewRemote(srv.URL, "is-IS")
	if _, err := r.Transcribe(context.Background(), writeClip(t)); err == nil {
		t.Fatalf("expected publish error")
	}
}

func TestRemoteTranscribeRequiresHost(t *testing.T) {
	t.Parallel()

	r := NewRemote("", "is-IS")
	if _, err := r.Transcribe(context.Background(), writeClip(t)); err == nil {
		t.Fatalf("expected error for empty host")
	}
}
