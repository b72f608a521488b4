// Command corrind scores individual subject or run maps against the
// reference gradient maps. Task, subject and run are parsed from the file
// names using the configured markers.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/KyungWonPark/StateSpace/internal/cli"
	log "github.com/sirupsen/logrus"
)

func main() {
	fs := flag.NewFlagSet("corrind", flag.ExitOnError)
	flags := cli.Register(fs, "gradientmask_all")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] individual maps or globs...\n", os.Args[0])
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	runner, opts, err := flags.Runner(fs)
	if err != nil {
		log.Fatalf("Failed to set up: %v", err)
	}

	paths, err := cli.Inputs(fs.Args())
	if err != nil {
		log.Fatalf("Failed to expand inputs: %v", err)
	}

	fmt.Printf("Scoring %d individual maps...\n", len(paths))
	res, err := runner.CorrInd(opts, paths)
	if err != nil {
		log.Fatalf("Failed to score individual maps: %v", err)
	}
	cli.Report(res)
}
