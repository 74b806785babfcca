/*
Package dsl provides a Go DSL for programmatically constructing scene graphs.

It is mostly used to build fixture graphs for tests and demos without writing
YAML documents by hand.

Example usage:

	b := dsl.New("ABC123")

	b.Frame("1:1").Named("Login").
		Button("1:2", "2:1")

	b.Frame("2:1").Named("Home").
		OnClick("1:1")

	graph, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}
	// graph implements ports.SceneGraph
*/
package dsl
