// Package compiler turns a populated container into a Plan: one routine per
// constructed class or service, each a list of argument expressions computed
// by the param providers' Compile operation. Loading a plan gives a resolver
// with the container's Get/Instance/Has contract that skips the provider
// chain.
//
//	plan, err := compiler.Compile(c)
//	plan.EncodeYAML(f)                // or EncodeJSON, or Render to Go source
//	...
//	plan, err := compiler.DecodeYAML(f)
//	resolver := compiler.Load(plan, c)
//
// Compile rejects everything the reflective path would reject. Plans are
// tied to the registry they were compiled against; recompile after changing
// constructors.
package compiler
