// Package main is the entry point for the reportctl CLI.
package main

import (
	"github.com/iago/civic-issues-back/internal/cli"
)

func main() {
	cli.Execute()
}
