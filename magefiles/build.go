//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Downloads the modules and builds a reproducible gardenia binary into bin/.
func (Build) Binary() error {
	if err := goModDownload(); err != nil {
		return err
	}
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/gardenia", "."), withEnv("GOFLAGS", "-trimpath"), withStream()); err != nil {
		return err
	}
	return nil
}
