// Copyright © 2024 The ELPS authors

// Package docs embeds the check reference for use by the CLI.
package docs

import _ "embed"

//go:embed checks.md
var ChecksGuide string
