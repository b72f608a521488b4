// Command indtimecourse scores every timepoint of individual time courses
// against the reference gradient maps.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/KyungWonPark/StateSpace/internal/cli"
	log "github.com/sirupsen/logrus"
)

func main() {
	fs := flag.NewFlagSet("indtimecourse", flag.ExitOnError)
	flags := cli.Register(fs, "gradientmask_all")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] individual time courses or globs...\n", os.Args[0])
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

	fmt.Printf("Scoring %d individual time courses...\n", len(paths))
	res, err := runner.CorrIndTimeCourse(opts, paths)
	if err != nil {
		log.Fatalf("Failed to score individual time courses: %v", err)
	}
	cli.Report(res)
}
