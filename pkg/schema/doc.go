/*
Package schema implements the closed parameter type system for skill
signatures.

A skill declares its parameters as a list of named, typed fields drawn from a
closed set (string, number, boolean, path). The package validates both sides
of the boundary:

  - CheckSignature validates a signature at registration time (non-empty
    names, known types, no duplicates).
  - Validate checks a call's parameter map against a signature (required
    fields present, value types match).

Validation failures are aggregated so callers see every bad field at once,
each with a specific field reference.
*/
package schema
