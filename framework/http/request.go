package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/verify"
)

const maxMemory = 32 << 20 // 32 MB

// ErrEmptyBody is returned by Bind for a JSON request without a body.
var ErrEmptyBody = errors.New("empty request body")

// Request wraps *http.Request with Laravel-style helpers.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// ── Binding ──────────────────────────────────────────────────────────────────

// Bind decodes the request body into v. JSON bodies map via `json` tags;
// form and multipart bodies are decoded through the same tags.
func (req *Request) Bind(v any) error {
	ct := req.raw.Header.Get("Content-Type")

	switch {
	case strings.Contains(ct, "application/json"):
		defer req.raw.Body.Close()
		body, err := io.ReadAll(req.raw.Body)
		if err != nil {
			return err
		}
		if len(body) == 0 {
			return ErrEmptyBody
		}
		return json.Unmarshal(body, v)
	case strings.Contains(ct, "multipart/form-data"):
		if err := req.raw.ParseMultipartForm(maxMemory); err != nil {
			return err
		}
		return bindForm(req.raw.MultipartForm.Value, v)
	default:
		if err := req.raw.ParseForm(); err != nil {
			return err
		}
		return bindForm(req.raw.PostForm, v)
	}
}

// Validate binds the body into v and runs the verifier over it. A bind
// error is returned as is; a failed check comes back as an invalid Proof.
//
//	// Laravel: $request->validate([...])
//	proof, err := req.Validate(&body, verifier)
func (req *Request) Validate(v any, verifier container.Verifier) (verify.Proof, error) {
	if err := req.Bind(v); err != nil {
		return verify.Proof{}, err
	}
	return verifier.Verify(v), nil
}

func bindForm(values map[string][]string, v any) error {
	m := make(map[string]any, len(values))
	for k, vals := range values {
		if len(vals) == 1 {
			m[k] = vals[0]
		} else {
			m[k] = vals
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// ── Input helpers ────────────────────────────────────────────────────────────

// Input returns a value from the query string or the post body.
func (req *Request) Input(key string, fallback ...string) string {
	_ = req.raw.ParseForm()
	if v := req.raw.FormValue(key); v != "" {
		return v
	}
	return first(fallback, "")
}

// Query returns a query-string value.
func (req *Request) Query(key string, fallback ...string) string {
	if v := req.raw.URL.Query().Get(key); v != "" {
		return v
	}
	return first(fallback, "")
}

// RouteParam returns a URL route parameter.
func (req *Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}

// BearerToken extracts the token from Authorization: Bearer <token>.
func (req *Request) BearerToken() string {
	auth := req.raw.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return token
	}
	return ""
}

// WantsJSON reports whether the client asked for a JSON response.
func (req *Request) WantsJSON() bool {
	return strings.Contains(req.raw.Header.Get("Accept"), "application/json") ||
		strings.Contains(req.raw.Header.Get("Content-Type"), "application/json")
}
