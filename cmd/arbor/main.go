// Command arbor is a family-tree editor: a local tree database, a terminal
// view, and an HTTP/WebSocket server for browser-based editing.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
