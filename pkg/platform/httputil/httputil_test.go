package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "jobportal/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error carries detail", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.Wrap(errors.New("db failed"), dErrors.CodeInternal, "Application failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]any
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["success"] != false {
			t.Fatalf("expected success=false, got %v", body["success"])
		}
		if body["message"] != "Application failed" {
			t.Fatalf("expected generic message, got %q", body["message"])
		}
		if body["error"] != "db failed" {
			t.Fatalf("expected underlying detail, got %q", body["error"])
		}
	})

	t.Run("bad request omits detail", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "status is required"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]any
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["message"] != "status is required" {
			t.Fatalf("expected message to be returned, got %q", body["message"])
		}
		if _, ok := body["error"]; ok {
			t.Fatalf("expected error detail to be omitted for client errors")
		}
	})
}

func TestWriteSuccessMergesFields(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, http.StatusCreated, "created", Envelope{"jobTitle": "Backend Engineer"})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, w.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["success"] != true || body["jobTitle"] != "Backend Engineer" || body["message"] != "created" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Status string `json:"status"`
	}

	t.Run("empty body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		_, err := DecodeJSON[payload](httptest.NewRecorder(), r)
		if !dErrors.HasCode(err, dErrors.CodeBadRequest) {
			t.Fatalf("expected bad request, got %v", err)
		}
	})

	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"status":"Accepted"}`))
		got, err := DecodeJSON[payload](httptest.NewRecorder(), r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != "Accepted" {
			t.Fatalf("expected Accepted, got %q", got.Status)
		}
	})
}
