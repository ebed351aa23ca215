// Command codeindex indexes a TypeScript-family source tree and answers
// dependency-graph queries against it.
package main

import (
	"fmt"
	"os"

	"github.com/marmos91/codeindex/cmd/codeindex/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
