// apotek is a bilingual pharmacy assistant: an interactive chat, a one-shot
// CLI, an HTTP API, and an MCP server over the same tool set.
package main

import (
	"fmt"
	"os"

	"github.com/apotek/apotek/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
