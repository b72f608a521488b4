// Command pivotlong rebuilds a wide score table from a long table written with
// -long, for example after long tables from several runs were concatenated.
package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/KyungWonPark/StateSpace/internal/io"
	log "github.com/sirupsen/logrus"
)

func main() {
	delimiter := flag.String("delimiter", "\t", "Column delimiter of both tables")
	out := flag.String("out", "", "Wide table to write (default: input without _long)")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("Usage: pivotlong [-delimiter d] [-out wide.tsv] long.tsv")
	}
	in := flag.Arg(0)

	d := []rune(*delimiter)
	if len(d) != 1 {
		log.Fatalf("Delimiter must be a single character, got %q", *delimiter)
	}

	if *out == "" {
		*out = strings.Replace(in, "_long", "", 1)
		if *out == in {
			*out = in + ".wide"
		}
	}

	w, err := io.LongToWide(in, *out, d[0])
	if err != nil {
		log.Fatalf("Failed to pivot %s: %v", in, err)
	}
	fmt.Printf("Wrote %s (%d rows, %d references)\n", *out, len(w.Rows), len(w.Columns))
}
