package flowstory

import _ "embed"

// Version is the release version of flowstory.
//
//go:embed VERSION
var Version string
