// Command tourctl runs operator tasks against the tour guide database:
// schema migrations and administrator bootstrap.
package main

import (
	"os"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	if err := newRootCmd(defaultEnv()).Execute(); err != nil {
		os.Exit(1)
	}
}
