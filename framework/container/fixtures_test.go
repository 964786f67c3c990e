package container_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-autowire/framework/config"
	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/types"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type Mailer interface{ Send(to string) string }

type SMTPMailer struct {
	Host string
	Port int
}

func (m *SMTPMailer) Send(to string) string { return "smtp:" + to }

func NewSMTPMailer(host string, port int) *SMTPMailer { return &SMTPMailer{Host: host, Port: port} }

type NullMailer struct{ sent int }

func (m *NullMailer) Send(string) string { m.sent++; return "" }

type Newsletter struct {
	Mailer  Mailer
	Subject string
}

func NewNewsletter(m Mailer, subject string) *Newsletter {
	return &Newsletter{Mailer: m, Subject: subject}
}

type Audit struct{ Mailer Mailer }

func NewAudit(m Mailer) *Audit { return &Audit{Mailer: m} }

type Foo struct{ n int }

type Greeter struct{ Value any }

type A struct{ b *B }
type B struct{ c *C }
type C struct{ a *A }

type Settings struct {
	V string `json:"v" verify:"required|min:3"`
}

func NewSettings(v string) *Settings { return &Settings{V: v} }

type Service struct{ Settings *Settings }

type Conn struct{ DSN string }

type ConnFactory struct {
	types.Factory
	dsn string
}

func (f *ConnFactory) Provide() (*Conn, error) {
	if f.dsn == "" {
		return nil, errors.New("empty dsn")
	}
	return &Conn{DSN: f.dsn}, nil
}

type Repo struct{ Conn *Conn }

type BrokenFactory struct{ types.Factory }

func (f *BrokenFactory) Provide() any { return nil }

// fixture holds a registry with every class above and a container over it.
type fixture struct {
	reg      *types.Registry
	c        *container.Container
	cfg      *config.Repository
	fooBuilt *int
}

func newFixture(t *testing.T, items map[string]any) *fixture {
	t.Helper()
	reg := types.NewRegistry()
	built := 0

	require.NoError(t, reg.Abstract("Mailer", (*Mailer)(nil)))
	reg.MustDefine("SMTPMailer", NewSMTPMailer,
		types.Param("host").Default("localhost"),
		types.Param("port").Default(25))
	_, err := reg.DefineType("NullMailer", &NullMailer{})
	require.NoError(t, err)
	reg.MustDefine("Newsletter", NewNewsletter, types.Param("mailer"), types.Param("subject").Default("news"))
	reg.MustDefine("Audit", NewAudit, types.Param("mailer").Nullable())
	reg.MustDefine("Foo", func() *Foo { built++; return &Foo{n: built} })
	reg.MustDefine("Greeter", func(v any) *Greeter { return &Greeter{Value: v} },
		types.Param("value").Union("string", "Foo"))
	reg.MustDefine("A", func(b *B) *A { return &A{b: b} }, types.Param("b"))
	reg.MustDefine("B", func(c *C) *B { return &B{c: c} }, types.Param("c"))
	reg.MustDefine("C", func(a *A) *C { return &C{a: a} }, types.Param("a"))
	reg.MustDefine("Settings", NewSettings, types.Param("v"))
	reg.MustDefine("Service", func(s *Settings) *Service { return &Service{Settings: s} },
		types.Param("settings").Config("svc.x").Verified())
	reg.MustDefine("ConnFactory", func(dsn string) *ConnFactory { return &ConnFactory{dsn: dsn} },
		types.Param("dsn").Default(""))
	reg.MustDefine("Repo", func(c *Conn) *Repo { return &Repo{Conn: c} }, types.Param("conn"))
	_, err = reg.DefineType("BrokenFactory", &BrokenFactory{})
	require.NoError(t, err)

	cfg := config.New(items)
	return &fixture{
		reg:      reg,
		c:        container.New(reg, container.WithConfig(cfg)),
		cfg:      cfg,
		fooBuilt: &built,
	}
}
