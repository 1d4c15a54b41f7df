package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, 201, map[string]string{"status": "ok"})

	if w.Code != 201 {
		t.Errorf("status = %d, want 201", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v, want status ok", body)
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, 404, "account_not_found", "account does not exist")

	if w.Code != 404 {
		t.Errorf("status = %d, want 404", w.Code)
	}

	var body errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if body.Error != "account_not_found" {
		t.Errorf("error = %q, want account_not_found", body.Error)
	}
	if body.Message != "account does not exist" {
		t.Errorf("message = %q, want account does not exist", body.Message)
	}
}

func TestParseJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name        string
		contentType string
		body        string
		wantErr     bool
	}{
		{
			name:        "valid request",
			contentType: "application/json",
			body:        `{"name":"alice"}`,
			wantErr:     false,
		},
		{
			name:        "content type with charset",
			contentType: "application/json; charset=utf-8",
			body:        `{"name":"alice"}`,
			wantErr:     false,
		},
		{
			name:        "missing content type",
			contentType: "",
			body:        `{"name":"alice"}`,
			wantErr:     true,
		},
		{
			name:        "wrong content type",
			contentType: "text/plain",
			body:        `{"name":"alice"}`,
			wantErr:     true,
		},
		{
			name:        "malformed JSON",
			contentType: "application/json",
			body:        `{"name":`,
			wantErr:     true,
		},
		{
			name:        "unknown field",
			contentType: "application/json",
			body:        `{"name":"alice","bogus":1}`,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}

			var p payload
			err := ParseJSON(r, &p)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Name != "alice" {
				t.Errorf("name = %q, want alice", p.Name)
			}
		})
	}
}
