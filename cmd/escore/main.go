// Command escore runs a pre-parsed ECMAScript-like program against the
// engine. It has no lexer or parser of its own — a host (or a human,
// via a text editor) supplies the program already encoded as the JSON
// AST shape pkg/ast.DecodeProgram expects.
package main

import (
	"fmt"
	"os"

	"github.com/escore/escore/cmd/escore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
