// Package main provides the entry point for the ge-inspector CLI.
package main

import (
	"github.com/colthorp/ge-inspector-go/internal/cli"
)

func main() {
	cli.Execute()
}
