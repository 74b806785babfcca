/*
Package flowstory turns a prototype flow of a design document into user stories.

Starting at a selected frame, the engine walks the "navigate to node" reactions of the
document depth-first, collects at most a fixed number of frames together with every
connection between them, renders each frame to an image and sends the result to a
generative API that returns structured user stories.

# Architecture

The library follows a hexagonal layout. The scene graph (where nodes and images come from)
and the story generator are ports; adapters provide an in-memory graph for fixtures and
tests, a Figma REST graph, and transports (SSE, Redis, MCP) for the messages of a session.

# Usage

	graph := dsl.New("FILEKEY")
	graph.Frame("1:1").Named("Login").Button("1:5", "1:2")
	graph.Frame("1:2").Named("Home")

	eng, err := flowstory.New(graph.MustBuild())
	if err != nil {
		log.Fatal(err)
	}

	res, err := eng.ExtractByID(ctx, "1:1")
	if err != nil {
		log.Fatal(err)
	}
	doc, err := eng.Generate(ctx, res, os.Getenv("OPENAI_API_KEY"))

Long-running hosts (the HTTP server, the MCP server) wrap the engine in a session.Session,
which tracks the current selection and reports progress as messages.
*/
package flowstory
