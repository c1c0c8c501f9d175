package main

import (
	"os"

	"github.com/spigell/unifit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
