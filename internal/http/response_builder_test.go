package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONResponseBuilderWritesPayload(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/tastings/Mars/guests/0").
		JSON(map[string]int{"index": 0}).
		Write(rr)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if rr.Header().Get("Location") != "/api/tastings/Mars/guests/0" {
		t.Fatalf("custom header not written")
	}
	var got map[string]int
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil || got["index"] != 0 {
		t.Fatalf("unexpected body %q: %v", rr.Body.String(), err)
	}
}

func TestJSONResponseBuilderNoPayload(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(rr)
	if rr.Code != http.StatusNoContent || rr.Body.Len() != 0 {
		t.Fatalf("expected empty 204, got %d %q", rr.Code, rr.Body.String())
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *JSONResponseBuilder
		status  int
	}{
		{"bad request", BadRequestError("bad"), http.StatusBadRequest},
		{"unprocessable", UnprocessableEntityError("bad"), http.StatusUnprocessableEntity},
		{"unauthorized", UnauthorizedError("bad"), http.StatusUnauthorized},
		{"not found", NotFoundError("bad"), http.StatusNotFound},
		{"internal", InternalServerError("bad"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.builder.Write(rr)
			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rr.Code)
			}
			var body errorBody
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body.Error != "bad" {
				t.Fatalf("unexpected body %q: %v", rr.Body.String(), err)
			}
		})
	}

	rr := httptest.NewRecorder()
	UnauthorizedError("x").Write(rr)
	if rr.Header().Get("WWW-Authenticate") == "" {
		t.Fatalf("401 must carry WWW-Authenticate")
	}
}

func TestJSONResponseBuilderEncodeFailure(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().JSON(map[string]any{"bad": make(chan int)}).Write(rr)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for unencodable payload, got %d", rr.Code)
	}
}
