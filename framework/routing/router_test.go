package routing_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/km-arc/go-autowire/framework/config"
	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/routing"
	"github.com/km-arc/go-autowire/framework/types"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func do(t *testing.T, router http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

type PhotoStore struct{ Name string }

// PhotoController counts its instances so tests can tell shared from fresh.
type PhotoController struct {
	Photos *PhotoStore
	ID     int
}

func (c *PhotoController) Index(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(200)
	_, _ = w.Write([]byte(strconv.Itoa(c.ID)))
}
func (c *PhotoController) Store(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(201) }
func (c *PhotoController) Show(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(200)
	_, _ = w.Write([]byte(c.Photos.Name + ":" + routing.Param(r, "id")))
}
func (c *PhotoController) Update(w http.ResponseWriter, _ *http.Request)  { w.WriteHeader(200) }
func (c *PhotoController) Destroy(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(204) }

type Reporter struct{ DSN string }

func newContainer(t *testing.T) *container.Container {
	t.Helper()
	reg := types.NewRegistry()
	built := 0
	reg.MustDefine("PhotoStore", func(name string) *PhotoStore { return &PhotoStore{Name: name} },
		types.Param("name").Default("photos"))
	reg.MustDefine("PhotoController", func(s *PhotoStore) *PhotoController {
		built++
		return &PhotoController{Photos: s, ID: built}
	}, types.Param("store"))
	reg.MustDefine("Reporter", func(dsn string) *Reporter { return &Reporter{DSN: dsn} },
		types.Param("dsn").Config("report.dsn"))
	return container.New(reg, container.WithConfig(config.New(nil)))
}

// ── HTTP verbs ────────────────────────────────────────────────────────────────

func TestRouter_Verbs(t *testing.T) {
	r := routing.New()
	r.Get("/v", okHandler)
	r.Post("/v", okHandler)
	r.Put("/v", okHandler)
	r.Patch("/v", okHandler)
	r.Delete("/v", okHandler)

	for _, m := range []string{"GET", "POST", "PUT", "PATCH", "DELETE"} {
		assert.Equal(t, http.StatusOK, do(t, r, m, "/v").Code, m)
	}
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, r, "OPTIONS", "/v").Code)
}

func TestRouter_Any(t *testing.T) {
	r := routing.New()
	r.Any("/any", okHandler)

	for _, m := range []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"} {
		assert.Equal(t, http.StatusOK, do(t, r, m, "/any").Code, m)
	}
}

func TestRouter_NotFound(t *testing.T) {
	r := routing.New()
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/missing").Code)
}

func TestRouter_Param(t *testing.T) {
	r := routing.New()
	r.Get("/users/{id}", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(routing.Param(req, "id")))
	})

	rr := do(t, r, http.MethodGet, "/users/42")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "42", rr.Body.String())
}

func TestRouter_Prefix(t *testing.T) {
	r := routing.New()
	r.Prefix("/api/v1", func(api *routing.Router) {
		api.Get("/users", okHandler)
	})

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/api/v1/users").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/users").Code)
}

func TestRouter_GroupMiddleware(t *testing.T) {
	called := false
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			next.ServeHTTP(w, r)
		})
	}

	r := routing.New()
	r.Group(func(g *routing.Router) {
		g.Middleware(mw)
		g.Get("/protected", okHandler)
	})
	r.Get("/open", okHandler)

	do(t, r, http.MethodGet, "/open")
	assert.False(t, called)
	do(t, r, http.MethodGet, "/protected")
	assert.True(t, called)
}

func TestRouter_RequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := routing.New(routing.WithLogger(zap.New(core)))
	r.Get("/ping", okHandler)

	do(t, r, http.MethodGet, "/ping")

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/ping", fields["path"])
	assert.EqualValues(t, 200, fields["status"])
	assert.NotEmpty(t, fields["request_id"])
}

// ── Controllers ───────────────────────────────────────────────────────────────

func TestRouter_Resource(t *testing.T) {
	r := routing.New(routing.WithResolver(newContainer(t)))
	r.Resource("/photos", "PhotoController")

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/photos", 200},
		{"POST", "/photos", 201},
		{"GET", "/photos/1", 200},
		{"PUT", "/photos/1", 200},
		{"PATCH", "/photos/1", 200},
		{"DELETE", "/photos/1", 204},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, do(t, r, tt.method, tt.path).Code)
		})
	}

	assert.Equal(t, "photos:7", do(t, r, "GET", "/photos/7").Body.String())
}

func TestRouter_ControllersAreBuiltPerRequest(t *testing.T) {
	r := routing.New(routing.WithResolver(newContainer(t)))
	r.Resource("/photos", "PhotoController")

	first := do(t, r, "GET", "/photos").Body.String()
	second := do(t, r, "GET", "/photos").Body.String()
	assert.NotEqual(t, first, second)
}

func TestRouter_ServiceControllersAreShared(t *testing.T) {
	c := newContainer(t)
	require.NoError(t, c.Set("photos", container.ClassName("PhotoController"), nil))
	r := routing.New(routing.WithResolver(c))
	r.Resource("/photos", "photos")

	first := do(t, r, "GET", "/photos").Body.String()
	second := do(t, r, "GET", "/photos").Body.String()
	assert.Equal(t, first, second)
}

func TestRouter_Action(t *testing.T) {
	r := routing.New(routing.WithResolver(newContainer(t)))
	r.Get("/store", routing.Action(r, "PhotoStore", func(s *PhotoStore, w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(s.Name))
	}))

	rr := do(t, r, "GET", "/store")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "photos", rr.Body.String())
}

func TestRouter_ActionWrongType(t *testing.T) {
	r := routing.New(routing.WithResolver(newContainer(t)), routing.WithDebug(true))
	r.Get("/store", routing.Action(r, "PhotoStore", func(*Reporter, http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	rr := do(t, r, "GET", "/store")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "resolved to *routing_test.PhotoStore")
}

func TestRouter_ResolutionFailure(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := routing.New(routing.WithResolver(newContainer(t)), routing.WithLogger(zap.New(core)))
	r.Resource("/ghosts", "GhostController")

	rr := do(t, r, "GET", "/ghosts")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Internal Server Error", body["message"])
	assert.NotContains(t, body, "exception")

	entries := logs.FilterMessage("controller resolution failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "GhostController", entries[0].ContextMap()["abstract"])
}

func TestRouter_ConfigFailureIsUnavailable(t *testing.T) {
	r := routing.New(routing.WithResolver(newContainer(t)), routing.WithDebug(true))
	r.Get("/report", routing.Action(r, "Reporter", func(*Reporter, http.ResponseWriter, *http.Request) {}))

	rr := do(t, r, "GET", "/report")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "report.dsn")
}

func TestRouter_NoResolver(t *testing.T) {
	r := routing.New()
	r.Resource("/photos", "PhotoController")
	assert.Equal(t, http.StatusInternalServerError, do(t, r, "GET", "/photos").Code)
}

func TestRouter_HandlerInterface(t *testing.T) {
	r := routing.New()
	r.Get("/ping", okHandler)
	assert.Equal(t, http.StatusOK, do(t, r.Handler(), "GET", "/ping").Code)
}
