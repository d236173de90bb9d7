package main

import (
	"os"

	"github.com/metrowx/metro-weather/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
