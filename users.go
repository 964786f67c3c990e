package main

import (
	"errors"
	"net/http"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/km-arc/go-autowire/framework/container"
	gohttp "github.com/km-arc/go-autowire/framework/http"
	"github.com/km-arc/go-autowire/framework/routing"
	"github.com/km-arc/go-autowire/framework/types"
	"github.com/km-arc/go-autowire/framework/verify"
)

// defineClasses describes every constructor the container may call.
func defineClasses(reg *types.Registry) {
	reg.MustAbstract("Notifier", (*Notifier)(nil))
	reg.MustDefine("LogNotifier", NewLogNotifier, types.Param("logger"))
	reg.MustDefine("UserStore", NewUserStore,
		types.Param("capacity").Config("users.capacity").Default(100))
	reg.MustDefine("UserController", NewUserController,
		types.Param("users"),
		types.Param("verifier"),
		types.Param("notifier"),
		types.Param("logger"))
}

// AppServiceProvider is where the application wires its own classes.
type AppServiceProvider struct {
	container.BaseProvider
}

func (p *AppServiceProvider) Register(app *container.Container) error {
	if err := app.Contract("Notifier", "LogNotifier"); err != nil {
		return err
	}
	// One store for the whole process; controllers are built per request.
	if err := app.Set("users", container.ClassName("UserStore"), nil); err != nil {
		return err
	}
	return app.Wire("UserController", nil, "")
}

// ── Users ─────────────────────────────────────────────────────────────────────

type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name" verify:"required|min:2|max:100"`
	Email string `json:"email" verify:"required|email"`
}

var errStoreFull = errors.New("user store is full")

// UserStore keeps users in memory.
type UserStore struct {
	mu       sync.RWMutex
	capacity int
	next     int
	users    map[int]User
}

func NewUserStore(capacity int) *UserStore {
	return &UserStore{capacity: capacity, next: 1, users: make(map[int]User)}
}

func (s *UserStore) All() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.users))
	for id := 1; id < s.next; id++ {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out
}

func (s *UserStore) Find(id int) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

func (s *UserStore) Add(u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.users) >= s.capacity {
		return User{}, errStoreFull
	}
	u.ID = s.next
	s.next++
	s.users[u.ID] = u
	return u, nil
}

func (s *UserStore) Put(u User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return false
	}
	s.users[u.ID] = u
	return true
}

func (s *UserStore) Remove(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	delete(s.users, id)
	return ok
}

// ── Notifications ─────────────────────────────────────────────────────────────

type Notifier interface {
	Welcome(u User)
}

type LogNotifier struct{ logger *zap.Logger }

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify")}
}

func (n *LogNotifier) Welcome(u User) {
	n.logger.Info("welcome", zap.Int("id", u.ID), zap.String("email", u.Email))
}

// ── Controller ────────────────────────────────────────────────────────────────

// UserController is built by the container on each request.
type UserController struct {
	users    *UserStore
	verifier *verify.Engine
	notifier Notifier
	logger   *zap.Logger
}

var _ routing.ResourceController = (*UserController)(nil)

func NewUserController(users *UserStore, verifier *verify.Engine, notifier Notifier, logger *zap.Logger) *UserController {
	return &UserController{users: users, verifier: verifier, notifier: notifier, logger: logger}
}

func (c *UserController) Index(w http.ResponseWriter, r *http.Request) {
	gohttp.NewResponse(w).Success(c.users.All())
}

func (c *UserController) Store(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	var u User
	proof, err := gohttp.NewRequest(r).Validate(&u, c.verifier)
	if err != nil {
		res.Error(http.StatusBadRequest, err.Error())
		return
	}
	if !proof.Valid() {
		res.ValidationError(proof)
		return
	}
	u, err = c.users.Add(u)
	if err != nil {
		res.Error(http.StatusConflict, err.Error())
		return
	}
	c.notifier.Welcome(u)
	res.Created(u)
}

func (c *UserController) Show(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	u, ok := c.find(r)
	if !ok {
		res.NotFound()
		return
	}
	res.Success(u)
}

func (c *UserController) Update(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	current, ok := c.find(r)
	if !ok {
		res.NotFound()
		return
	}
	u := current
	proof, err := gohttp.NewRequest(r).Validate(&u, c.verifier)
	if err != nil {
		res.Error(http.StatusBadRequest, err.Error())
		return
	}
	if !proof.Valid() {
		res.ValidationError(proof)
		return
	}
	u.ID = current.ID
	c.users.Put(u)
	res.Success(u)
}

func (c *UserController) Destroy(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(routing.Param(r, "id"))
	if !c.users.Remove(id) {
		gohttp.NewResponse(w).NotFound()
		return
	}
	c.logger.Debug("user removed", zap.Int("id", id))
	gohttp.NewResponse(w).NoContent()
}

func (c *UserController) find(r *http.Request) (User, bool) {
	id, err := strconv.Atoi(routing.Param(r, "id"))
	if err != nil {
		return User{}, false
	}
	return c.users.Find(id)
}
