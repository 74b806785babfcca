// Package mcp exposes flow extraction and story generation as Model Context Protocol tools.
package mcp
