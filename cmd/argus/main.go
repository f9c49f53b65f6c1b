// Package main provides the entry point for the argus CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/argus/cmd/argus/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
