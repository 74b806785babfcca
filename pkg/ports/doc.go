/*
Package ports defines the driven ports (interfaces) of flowstory.

These interfaces decouple the extraction core from the host document, the
generation API and the presentation transport, so each can be replaced by an
in-memory fixture in tests.

# Key Interfaces

  - SceneGraph: Resolves nodes and renders images (memory fixture, Figma REST).
  - Publisher / MessageSource: Outbound and inbound presentation channel (SSE, Redis, recorder).
  - StoryGenerator: Produces user stories from an extracted flow.
*/
package ports
