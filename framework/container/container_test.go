package container_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/types"
)

// ── Contracts & resolution ────────────────────────────────────────────────────

func TestContainer_ContractResolvesToConcrete(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.Contract("Mailer", "SMTPMailer"))

	concrete, err := f.c.Resolve("Mailer")
	require.NoError(t, err)
	assert.Equal(t, "SMTPMailer", concrete)

	m, err := f.c.Instance("Mailer", nil)
	require.NoError(t, err)
	assert.IsType(t, &SMTPMailer{}, m)
	assert.Equal(t, "localhost", m.(*SMTPMailer).Host)
	assert.Equal(t, 25, m.(*SMTPMailer).Port)
}

func TestContainer_ContractRejectsNonSubtype(t *testing.T) {
	f := newFixture(t, nil)

	err := f.c.Contract("Mailer", "Foo")
	assert.ErrorIs(t, err, container.ErrInvalidRegistration)

	err = f.c.Contract("Mailer", "Nope")
	assert.ErrorIs(t, err, container.ErrInvalidRegistration)

	assert.NoError(t, f.c.Contract("Foo", "Foo"), "self contract is a no-op")
}

func TestContainer_ResolveOrder(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.Contract("Mailer", "NullMailer"))
	require.NoError(t, f.c.Alias("mail", "Mailer"))
	require.NoError(t, f.c.Alias("post", "mail"))

	concrete, err := f.c.Resolve("post")
	require.NoError(t, err)
	assert.Equal(t, "NullMailer", concrete)

	concrete, err = f.c.Resolve("Foo")
	require.NoError(t, err)
	assert.Equal(t, "Foo", concrete, "classes resolve to themselves")

	_, err = f.c.Resolve("Unknown")
	var invalid *container.InvalidAbstractError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Unknown", invalid.Abstract)
}

func TestContainer_Alias(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.c.Alias("foo", "foo"))
	assert.False(t, f.c.Has("foo"), "self alias is not stored")

	require.NoError(t, f.c.Alias("x", "y"))
	require.NoError(t, f.c.Alias("y", "z"))
	assert.ErrorIs(t, f.c.Alias("z", "x"), container.ErrInvalidRegistration)

	require.NoError(t, f.c.Set("mailer", container.ClassName("SMTPMailer"), nil))
	require.NoError(t, f.c.Alias("mail", "mailer"))
	a, err := f.c.Get("mail")
	require.NoError(t, err)
	b, err := f.c.Get("mailer")
	require.NoError(t, err)
	assert.Same(t, a, b, "an alias shares the singleton of its service")
}

// ── Singletons & transients ───────────────────────────────────────────────────

func TestContainer_GetIsSingleton(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.Set("mailer", container.ClassName("SMTPMailer"), map[string]any{"host": "mx"}))

	a, err := f.c.Get("mailer")
	require.NoError(t, err)
	b, err := f.c.Get("mailer")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, "mx", a.(*SMTPMailer).Host)
}

func TestContainer_InstanceIsTransientWithoutID(t *testing.T) {
	f := newFixture(t, nil)

	a, err := f.c.Instance("Foo", nil)
	require.NoError(t, err)
	b, err := f.c.Instance("Foo", nil)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, *f.fooBuilt)
}

func TestContainer_InstanceReturnsTheOnlyRegisteredSingleton(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.Set("mailer", container.ClassName("SMTPMailer"), nil))

	a, err := f.c.Instance("SMTPMailer", nil)
	require.NoError(t, err)
	b, err := f.c.Get("mailer")
	require.NoError(t, err)
	assert.Same(t, a, b)

	fresh, err := f.c.Instance("SMTPMailer", map[string]any{"port": 2525})
	require.NoError(t, err)
	assert.NotSame(t, a, fresh, "args always build a new object")
	assert.Equal(t, 2525, fresh.(*SMTPMailer).Port)
}

func TestContainer_SetLiveValueReachableByType(t *testing.T) {
	f := newFixture(t, nil)
	live := &NullMailer{}
	require.NoError(t, f.c.Set("null", live, nil))

	got, err := f.c.Instance("NullMailer", nil)
	require.NoError(t, err)
	assert.Same(t, live, got)

	id, err := f.c.ReverseResolve("NullMailer", "")
	require.NoError(t, err)
	assert.Equal(t, "null", id)
}

func TestContainer_SetRejectsBadInput(t *testing.T) {
	f := newFixture(t, nil)
	assert.ErrorIs(t, f.c.Set("", &Foo{}, nil), container.ErrInvalidRegistration)
	assert.ErrorIs(t, f.c.Set("x", nil, nil), container.ErrInvalidRegistration)
	assert.ErrorIs(t, f.c.Set("x", container.ClassName("Nope"), nil), container.ErrInvalidRegistration)
}

func TestContainer_GetUnknown(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.c.Get("missing")

	var nf *container.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.ID)
	assert.ErrorIs(t, err, container.ErrNotFound)
}

func TestContainer_RegistersItself(t *testing.T) {
	f := newFixture(t, nil)
	got, err := container.Resolve[*container.Container](f.c, "container")
	require.NoError(t, err)
	assert.Same(t, f.c, got)
}

// ── Recursion ─────────────────────────────────────────────────────────────────

func TestContainer_CycleIsDetected(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.c.Instance("A", nil)
	require.Error(t, err)

	var rec *container.RecursiveDependencyError
	require.ErrorAs(t, err, &rec)
	assert.Equal(t, []string{"A", "B", "C"}, rec.Chain)
	assert.Contains(t, err.Error(), "A => B => C")
	assert.ErrorIs(t, err, container.ErrAutoWire, "the chain is wrapped, not swallowed")
	assert.Empty(t, f.c.Building(), "the stack unwinds on failure")
}

func TestContainer_CycleThroughServices(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.Set("a", container.ClassName("A"), nil))

	_, err := f.c.Get("a")
	var rec *container.RecursiveDependencyError
	require.ErrorAs(t, err, &rec)
	assert.Equal(t, []string{"a", "B", "C"}, rec.Chain)
	assert.Equal(t, "a", rec.Next)
}

// ── Ambiguity ─────────────────────────────────────────────────────────────────

func TestContainer_AmbiguousIDs(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.Set("primary", container.ClassName("SMTPMailer"), nil))
	require.NoError(t, f.c.Set("backup", container.ClassName("SMTPMailer"), map[string]any{"host": "backup"}))

	_, err := f.c.Instance("SMTPMailer", nil)
	var amb *container.AmbiguousError
	require.ErrorAs(t, err, &amb)
	assert.Equal(t, []string{"primary", "backup"}, amb.IDs)
	assert.Contains(t, err.Error(), "primary, backup")

	id, err := f.c.ReverseResolve("SMTPMailer", "backup")
	require.NoError(t, err)
	assert.Equal(t, "backup", id)

	// A hint that is not a candidate does not disambiguate.
	_, err = f.c.ReverseResolve("SMTPMailer", "tertiary")
	assert.ErrorIs(t, err, container.ErrAmbiguous)
}

func TestContainer_InstanceReturnsTheSingletonOfAWiredName(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.Wire("Foo", nil, "foo.one"))

	a, err := f.c.Instance("Foo", nil)
	require.NoError(t, err)
	b, err := f.c.Get("foo.one")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, *f.fooBuilt)

	id, err := f.c.ReverseResolve("Foo", "")
	require.NoError(t, err)
	assert.Equal(t, "foo.one", id)
}

func TestContainer_AmbiguousAliases(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.Alias("foo.one", "Foo"))
	require.NoError(t, f.c.Wire("Foo", nil, "foo.two"))

	_, err := f.c.Instance("Foo", nil)
	var amb *container.AmbiguousError
	require.ErrorAs(t, err, &amb)
	assert.Equal(t, []string{"foo.one", "foo.two"}, amb.IDs)

	target, err := f.c.Target("foo.two")
	require.NoError(t, err)
	assert.Equal(t, "foo.two", target.ID)
}

func TestContainer_ServicesListAliases(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.Set("mailer", container.ClassName("SMTPMailer"), nil))
	require.NoError(t, f.c.Alias("mail", "mailer"))
	require.NoError(t, f.c.Wire("Foo", nil, "foo"))

	var ids []string
	aliases := map[string]string{}
	for _, svc := range f.c.Services() {
		ids = append(ids, svc.ID)
		if svc.Alias != "" {
			aliases[svc.ID] = svc.Alias
		}
	}
	assert.Subset(t, ids, []string{"mailer", "mail", "foo"})
	assert.Equal(t, map[string]string{"mail": "mailer", "foo": "Foo"}, aliases)
}

func TestContainer_NameHintPicksService(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.Contract("Mailer", "SMTPMailer"))
	live := &NullMailer{}
	require.NoError(t, f.c.Set("mailer", live, nil))

	n, err := f.c.Instance("Newsletter", nil)
	require.NoError(t, err)
	assert.Same(t, live, n.(*Newsletter).Mailer)
	assert.Equal(t, "news", n.(*Newsletter).Subject)
}

func TestContainer_NameHintIgnoresIncompatibleService(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.Contract("Mailer", "SMTPMailer"))
	require.NoError(t, f.c.Set("mailer", &Foo{}, nil))

	n, err := f.c.Instance("Newsletter", nil)
	require.NoError(t, err)
	assert.IsType(t, &SMTPMailer{}, n.(*Newsletter).Mailer)
}

// ── Providers ─────────────────────────────────────────────────────────────────

func TestContainer_UnionTriesMembersLeftToRight(t *testing.T) {
	f := newFixture(t, nil)

	g, err := f.c.Instance("Greeter", map[string]any{"value": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", g.(*Greeter).Value)
	assert.Zero(t, *f.fooBuilt, "Foo is never constructed")

	g, err = f.c.Instance("Greeter", nil)
	require.NoError(t, err)
	assert.IsType(t, &Foo{}, g.(*Greeter).Value)
}

func TestContainer_UnionFailureNamesEveryMember(t *testing.T) {
	f := newFixture(t, nil)
	fn, err := f.reg.Func("pick", func(v any) any { return v }, types.Param("v").Union("int", "Missing"))
	require.NoError(t, err)

	_, err = f.c.Call(fn, nil)
	var aw *container.AutoWireError
	require.ErrorAs(t, err, &aw)
	assert.Equal(t, 1, aw.Position)
	assert.Equal(t, "v", aw.Name)
	require.Len(t, aw.Reasons, 2)
	assert.Contains(t, aw.Reasons[0], "int")
	assert.Contains(t, aw.Reasons[1], "Missing")
	assert.Contains(t, err.Error(), "cannot autowire argument #1 $v of pick()")
}

func TestContainer_IntersectionAlwaysFails(t *testing.T) {
	f := newFixture(t, nil)
	fn, err := f.reg.Func("both", func(v any) any { return v }, types.Param("v").Intersection("Mailer", "NullMailer"))
	require.NoError(t, err)

	_, err = f.c.Call(fn, map[string]any{"v": &NullMailer{}})
	assert.ErrorIs(t, err, container.ErrAutoWire)
	assert.Contains(t, err.Error(), "intersection")
}

func TestContainer_NullableAndOptionalFallBack(t *testing.T) {
	f := newFixture(t, nil)

	a, err := f.c.Instance("Audit", nil)
	require.NoError(t, err)
	assert.Nil(t, a.(*Audit).Mailer, "unresolvable nullable parameter binds nil")

	fn, err := f.reg.Func("greet", func(name string, n int) (string, int) { return name, n },
		types.Param("name").Default("world"), types.Param("n").Default(1))
	require.NoError(t, err)
	out, err := f.c.Call(fn, map[string]any{"n": 3})
	require.NoError(t, err)
	assert.Equal(t, []any{"world", 3}, out)
}

func TestContainer_RequiredParameterFails(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.c.Instance("Newsletter", nil)
	var aw *container.AutoWireError
	require.ErrorAs(t, err, &aw)
	assert.Equal(t, "Newsletter.New", aw.Function)
	assert.Equal(t, "mailer", aw.Name)
	assert.ErrorIs(t, err, container.ErrInvalidAbstract)
}

func TestContainer_UntypedParameter(t *testing.T) {
	f := newFixture(t, nil)
	fn, err := f.reg.Func("raw", func(v any) any { return v }, types.Param("v").Untyped())
	require.NoError(t, err)
	_, err = f.c.Call(fn, map[string]any{"v": 1})
	assert.ErrorIs(t, err, container.ErrAutoWire)

	fn, err = f.reg.Func("rawDefault", func(v any) any { return v }, types.Param("v").Untyped().Default("d"))
	require.NoError(t, err)
	out, err := f.c.Call(fn, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"d"}, out)
}

func TestContainer_ForwardNeedsMatchingKind(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.c.Instance("SMTPMailer", map[string]any{"port": "25"})
	require.NoError(t, err, "a mismatched value is ignored and the default applies")

	m, err := f.c.Instance("SMTPMailer", map[string]any{"port": int64(587)})
	require.NoError(t, err)
	assert.Equal(t, 587, m.(*SMTPMailer).Port)
}

// ── Config items ──────────────────────────────────────────────────────────────

func TestContainer_ConfigRoundTrip(t *testing.T) {
	f := newFixture(t, map[string]any{"svc": map[string]any{"x": map[string]any{"v": "hello"}}})

	s, err := f.c.Instance("Service", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", s.(*Service).Settings.V)
}

func TestContainer_ConfigKeyFromArgs(t *testing.T) {
	f := newFixture(t, map[string]any{"alt": map[string]any{"v": "other"}})

	s, err := f.c.Instance("Service", map[string]any{"settings": "alt"})
	require.NoError(t, err)
	assert.Equal(t, "other", s.(*Service).Settings.V)
}

func TestContainer_ConfigVerificationFailure(t *testing.T) {
	f := newFixture(t, map[string]any{"svc": map[string]any{"x": map[string]any{"v": "hi"}}})

	_, err := f.c.Instance("Service", nil)
	var ce *container.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "svc.x", ce.Key)
	assert.Equal(t, "v", ce.Attribute)
	assert.ErrorIs(t, err, container.ErrAutoWire)
}

func TestContainer_ConfigMissingKey(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.c.Instance("Service", nil)
	assert.ErrorIs(t, err, container.ErrConfig)
	assert.Contains(t, err.Error(), "is not set")
}

func TestContainer_ConfigScalar(t *testing.T) {
	f := newFixture(t, map[string]any{"mail": map[string]any{"port": float64(465), "host": 7}})
	fn, err := f.reg.Func("port", func(p int) int { return p }, types.Param("p").Config("mail.port"))
	require.NoError(t, err)

	out, err := f.c.Call(fn, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{465}, out)

	fn, err = f.reg.Func("host", func(h string) string { return h }, types.Param("h").Config("mail.host"))
	require.NoError(t, err)
	_, err = f.c.Call(fn, nil)
	assert.ErrorIs(t, err, container.ErrConfig)
}

// ── Factories ─────────────────────────────────────────────────────────────────

func TestContainer_FactoryProducesType(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.Wire("ConnFactory", map[string]any{"dsn": "pg://db"}, ""))

	r, err := f.c.Instance("Repo", nil)
	require.NoError(t, err)
	assert.Equal(t, "pg://db", r.(*Repo).Conn.DSN)
}

func TestContainer_FactoryErrorIsWrapped(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.Wire("ConnFactory", nil, ""))

	_, err := f.c.Instance("Repo", nil)
	var be *container.BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "ConnFactory", be.Class)
}

func TestContainer_MalformedFactory(t *testing.T) {
	f := newFixture(t, nil)
	err := f.c.Wire("BrokenFactory", nil, "")
	assert.ErrorIs(t, err, container.ErrInvalidRegistration)
}

// ── Wiring ────────────────────────────────────────────────────────────────────

func TestContainer_WireNameBecomesContractOrAlias(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.c.Wire("SMTPMailer", map[string]any{"host": "mx"}, "Mailer"))
	assert.Equal(t, "SMTPMailer", f.c.Contracts()["Mailer"])

	require.NoError(t, f.c.Wire("NullMailer", nil, "null"))
	assert.Equal(t, "NullMailer", f.c.Aliases()["null"])
	assert.True(t, f.c.Has("null"))

	m, err := f.c.Instance("Mailer", nil)
	require.NoError(t, err)
	assert.Equal(t, "mx", m.(*SMTPMailer).Host, "wired args apply to every construction")

	assert.ErrorIs(t, f.c.Wire("Nope", nil, ""), container.ErrInvalidRegistration)
}

func TestContainer_ContextualWiring(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.When("SMTPMailer").Needs("host").Give("relay"))
	require.NoError(t, f.c.Set("null", &NullMailer{}, nil))
	require.NoError(t, f.c.When("Newsletter").Needs("mailer").GiveService("null"))

	m, err := f.c.Instance("SMTPMailer", nil)
	require.NoError(t, err)
	assert.Equal(t, "relay", m.(*SMTPMailer).Host)

	n, err := f.c.Instance("Newsletter", nil)
	require.NoError(t, err)
	assert.IsType(t, &NullMailer{}, n.(*Newsletter).Mailer)

	assert.Error(t, f.c.When("SMTPMailer").Give("x"))
}

func TestContainer_CallAutowiresFunction(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.c.Contract("Mailer", "SMTPMailer"))
	fn, err := f.reg.Func("notify", func(m Mailer, to string) (string, error) {
		if to == "" {
			return "", errors.New("no recipient")
		}
		return m.Send(to), nil
	}, types.Param("m"), types.Param("to"))
	require.NoError(t, err)

	out, err := f.c.Call(fn, map[string]any{"to": "ops"})
	require.NoError(t, err)
	assert.Equal(t, []any{"smtp:ops"}, out)

	_, err = f.c.Call(fn, map[string]any{"to": ""})
	assert.EqualError(t, err, "no recipient")
}

func TestMake_TypeAssertion(t *testing.T) {
	f := newFixture(t, nil)

	m, err := container.Make[*SMTPMailer](f.c, "SMTPMailer", nil)
	require.NoError(t, err)
	assert.Equal(t, "localhost", m.Host)

	_, err = container.Make[Mailer](f.c, "Foo", nil)
	assert.ErrorContains(t, err, "container_test.Mailer")
}
