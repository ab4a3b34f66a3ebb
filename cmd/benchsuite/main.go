package main

import (
	"os"

	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/cmd/benchsuite/cmd"
	"github.com/BigDataULPGC-Lukasz-Stolzmann/Stage2-BigData/internal/common/logging"
)

func main() {
	logging.ConfigureLogging()
	err := cmd.RootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}
