//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

func gitVersion() string {
	version, err := sh.Output("git", "describe", "--always", "--long", "--dirty")
	if err != nil {
		return "dev"
	}
	return version
}

// Builds the roamwyth binary into ./bin.
func Build() error {
	return sh.Run("go", "build", "-ldflags", "-X main.version="+gitVersion(), "-o", "bin/roamwyth", ".")
}

// Runs the test suite with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Runs go vet.
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// Applies the database schema using the DSN from the environment.
func Migrate() error {
	mg.Deps(Build)
	return sh.RunV("./bin/roamwyth", "migrate")
}
