//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Starts the HTTP server. GARDENIA_CONFIG points at a TOML file.
func (Run) Server() error {
	mg.Deps(Build.Binary)
	fmt.Println("Run server...")
	if _, err := executeCmd("bin/gardenia", withArgs(configArgs("-mode", "server")...), withStream()); err != nil {
		return err
	}
	return nil
}

// Renders the demo garden into demo.png.
func (Run) Demo() error {
	mg.Deps(Build.Binary)
	fmt.Println("Run demo...")
	if _, err := executeCmd("bin/gardenia", withArgs(configArgs("-mode", "demo", "-out", "demo.png")...), withStream()); err != nil {
		return err
	}
	return nil
}
