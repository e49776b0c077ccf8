package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/collabhub/internal/app/system/auth"
	"github.com/dalemusser/collabhub/internal/domain/models"
)

// WithMember adds m to the request context as the signed-in user. This
// bypasses the session middleware.
func WithMember(r *http.Request, m models.Member) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:     m.ID.Hex(),
		Handle: m.Handle,
		Name:   m.DisplayName,
		Role:   m.Role,
	})
}

// NewJSONRequest builds a request whose body is v encoded as JSON. A nil v
// sends no body.
func NewJSONRequest(t *testing.T, method, target string, v any) *http.Request {
	t.Helper()
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, body)
	if v != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t testing.TB, expected int) {
	t.Helper()
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body %s)", r.Code, expected, strings.TrimSpace(r.Body.String()))
	}
}

// AssertErrorKind checks that the body is an error envelope of kind.
func (r *ResponseRecorder) AssertErrorKind(t testing.TB, kind string) {
	t.Helper()
	var body struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	if err := json.Unmarshal(r.Body.Bytes(), &body); err != nil {
		t.Errorf("decode error body: %v", err)
		return
	}
	if body.Error.Kind != kind {
		t.Errorf("error kind: got %q, want %q", body.Error.Kind, kind)
	}
}

// DecodeJSON unmarshals the response body into v.
func (r *ResponseRecorder) DecodeJSON(t testing.TB, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, r.Body.String())
	}
}
