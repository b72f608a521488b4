// Command corrtasks scores task-evoked brain maps against the reference
// gradient maps. Without arguments it scores the bundled task maps.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/KyungWonPark/StateSpace/internal/cli"
	log "github.com/sirupsen/logrus"
)

func main() {
	fs := flag.NewFlagSet("corrtasks", flag.ExitOnError)
	flags := cli.Register(fs, "gradientmask_all")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] [task maps or globs...]\n", os.Args[0])
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	runner, opts, err := flags.Runner(fs)
	if err != nil {
		log.Fatalf("Failed to set up: %v", err)
	}

	paths, err := cli.Inputs(fs.Args())
	if err != nil {
		log.Fatalf("Failed to expand inputs: %v", err)
	}

	fmt.Printf("Scoring %d task maps...\n", len(paths))
	res, err := runner.CorrTasks(opts, paths)
	if err != nil {
		log.Fatalf("Failed to score task maps: %v", err)
	}
	cli.Report(res)
}
