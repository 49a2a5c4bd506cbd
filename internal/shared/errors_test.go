package shared

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestNewAPIError(t *testing.T) {
	err := NewAPIError("test_code", "test message")
	if err.Code != "test_code" {
		t.Errorf("expected code 'test_code', got '%s'", err.Code)
	}
	if err.Message != "test message" {
		t.Errorf("expected message 'test message', got '%s'", err.Message)
	}
	if err.Details != nil {
		t.Errorf("expected nil details, got %v", err.Details)
	}
}

func TestAPIError_WithDetails(t *testing.T) {
	err := NewAPIError("code", "message").WithDetails(map[string]int{"frames": 30})

	d, ok := err.Details.(map[string]int)
	if !ok {
		t.Fatal("expected details to be map[string]int")
	}
	if d["frames"] != 30 {
		t.Errorf("expected frames 30, got %d", d["frames"])
	}
}

func TestHTTPHelpers(t *testing.T) {
	tests := []struct {
		name   string
		err    *echo.HTTPError
		status int
		code   string
	}{
		{"bad request", BadRequest("bad", "bad request"), http.StatusBadRequest, "bad"},
		{"not found", NotFound("missing", "not found"), http.StatusNotFound, "missing"},
		{"conflict", Conflict("busy", "conflict"), http.StatusConflict, "busy"},
		{"unprocessable", Unprocessable("empty_video", "no frames"), http.StatusUnprocessableEntity, "empty_video"},
		{"bad gateway", BadGateway("generation_failed", "try again"), http.StatusBadGateway, "generation_failed"},
		{"internal", InternalError("internal", "internal error"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertHTTPError(t, tt.err, tt.status, tt.code)
		})
	}
}

func TestNewID(t *testing.T) {
	id := NewID("sess_")
	if len(id) != len("sess_")+32 {
		t.Errorf("unexpected id length %d", len(id))
	}
	if id[:5] != "sess_" {
		t.Errorf("expected prefix sess_, got %s", id)
	}
	if NewID("sess_") == id {
		t.Error("expected ids to differ")
	}
}

func assertHTTPError(t *testing.T, err *echo.HTTPError, expectedStatus int, expectedCode string) {
	t.Helper()
	if err.Code != expectedStatus {
		t.Errorf("expected status %d, got %d", expectedStatus, err.Code)
	}
	apiErr, ok := err.Message.(*APIError)
	if !ok {
		t.Fatal("expected message to be *APIError")
	}
	if apiErr.Code != expectedCode {
		t.Errorf("expected code '%s', got '%s'", expectedCode, apiErr.Code)
	}
}
