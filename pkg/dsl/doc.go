/*
Package dsl provides a Go DSL for programmatically constructing Skillgate
workflows.

It allows developers to define workflow graphs using a type-safe, fluent
builder pattern instead of relying on external YAML or JSON documents. This
is particularly useful for dynamic workflow generation, unit testing, and
leveraging IDE autocompletion/type-checking.

Example usage:

	package main

	import (
		"github.com/skillgate/skillgate/pkg/dsl"
	)

	func main() {
		b := dsl.New("nightly-backup").Name("Nightly Backup")

		b.Node("fetch", "read_file").
			Param("path", "/etc/app.conf")

		b.Node("store", "write_file").
			Param("path", "/backup/app.conf")

		b.Edge("fetch", "store").BindTo("content")

		wf, err := b.Build()
		// ... save wf or pass it to engine.RunWorkflow
		_ = wf
		_ = err
	}
*/
package dsl
