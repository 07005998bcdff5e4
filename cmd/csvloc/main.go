// Command csvloc extracts, localizes and merges delimited text files.
package main

import (
	"os"

	"github.com/JonMunkholm/csvloc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
