// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Command repocachectl is a thin operator tool for driving a
// RepositoryManager directly: lookup, remove, and reset against a
// config.Profile-configured manager. It is not a package-manager
// frontend.
package main

import (
	"github.com/gizzahub/gzh-repocache/cmd/repocachectl/cmd"
)

var version = "dev"

func main() {
	cmd.Execute(version)
}
