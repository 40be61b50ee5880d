package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/voicescribe/backend/internal/models"
)

func TestUploadSendsMultipartAndAuth(t *testing.T) {
	recID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recordings" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tkn" {
			t.Fatalf("authorization = %q", got)
		}
		file, header, err := r.FormFile("audio")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "wav-bytes" {
			t.Fatalf("audio payload = %q", data)
		}
		if ct := header.Header.Get("Content-Type"); ct != "audio/wav" {
			t.Fatalf("part content type = %q", ct)
		}
		if r.FormValue("title") != "Demo" || r.FormValue("duration") != "12" {
			t.Fatalf("fields title=%q duration=%q", r.FormValue("title"), r.FormValue("duration"))
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    models.Recording{ID: recID, Status: models.StatusProcessing},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tkn")
	rec, err := c.Upload(context.Background(), []byte("wav-bytes"), UploadOptions{
		Title:       "Demo",
		Duration:    12,
		ContentType: "audio/wav",
		Filename:    "capture.wav",
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if rec.ID != recID || rec.Status != models.StatusProcessing {
		t.Fatalf("recording = %+v", rec)
	}
}

func TestStatusAndServerErrors(t *testing.T) {
	recID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/recordings/" + recID.String() + "/status":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"data":    map[string]string{"status": models.StatusTranscribing},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"error":   "recording not found",
			})
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "tkn")
	status, err := c.Status(context.Background(), recID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != models.StatusTranscribing {
		t.Fatalf("status = %q", status)
	}

	if _, err := c.Status(context.Background(), uuid.New()); err == nil {
		t.Fatal("missing recording should surface the server error")
	}
}
