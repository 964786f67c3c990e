// Package verify is the validation engine used for config-bound data objects.
//
// # Overview
//
// Rules are pipe-separated strings, the same syntax as Laravel's Validator.
// They are applied either to flat string data (Check) or to the exported
// fields of a struct carrying `verify` tags (Verify). Both return a Proof.
//
// # Basic Usage
//
//	type SMTP struct {
//	    Host string `config:"host" verify:"required"`
//	    Port int    `config:"port" verify:"required|integer|gte:1"`
//	    From string `config:"from" verify:"nullable|email"`
//	}
//
//	proof := verify.New().Verify(&SMTP{Host: "mail"})
//	if !proof.Valid() {
//	    v, _ := proof.First() // v.Attribute == "port"
//	}
//
// # Available Rules
//
// String rules: required, string, min:n, max:n, size:n, between:min,max,
// alpha, alpha_num, alpha_dash, regex:pattern.
//
// Format rules: email, url.
//
// Numeric rules: numeric, integer, gt:n, gte:n, lt:n, lte:n.
//
// Comparison rules: confirmed, same:other, different:other.
//
// Type rules: boolean, in:a,b,c, not_in:a,b,c.
//
// Control rules: nullable and sometimes skip the remaining rules of an
// empty attribute.
//
// The first failing rule of an attribute stops the others (bail behaviour).
package verify
