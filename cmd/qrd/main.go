package main

import (
	"flag"
	"fmt"
	"os"

	"qrd/internal/di"
	"qrd/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "path to configuration file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "log to console in addition to files")
	flag.Parse()

	if _, err := di.InitApp(flags); err != nil {
		fmt.Fprintf(os.Stderr, "qrd: %s\n", err)
		os.Exit(1)
	}
}
