// Command clippy is the CLI coding assistant.
package main

import (
	"fmt"
	"os"

	"github.com/clippy-ai/clippy/cmd/clippy/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
