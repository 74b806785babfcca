/*
Package domain contains the core models of flowstory.

It defines the scene graph as seen by the extractor, the flow produced by an
extraction, the generated user stories and the messages exchanged with the
presentation layer. This package is kept pure and free of I/O.

# Key Entities

  - SceneNode: A node of the design document (frame, group, text...), with children and reactions.
  - Reaction: A trigger/action binding; "NODE" actions become edges.
  - Edge: A directed, labeled connection between two frames.
  - FlowExtractionResult: The frames, connections and images of one extraction.
  - StoryDocument: The user stories returned by the generator.
  - Message / InboundMessage: The presentation channel protocol.
*/
package domain
