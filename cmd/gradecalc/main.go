// Command gradecalc prints a gradebook for a course snapshot file without a
// server or database.
//
//	gradecalc [-category id] [-workers n] course.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mind-engage/mindengage-gradebook/internal/logger"
	"github.com/mind-engage/mindengage-gradebook/internal/snapshot"
)

func main() {
	category := flag.String("category", "", "only show this category")
	workers := flag.Int("workers", 4, "students computed at once")
	verbose := flag.Bool("v", false, "log warnings and progress to stderr")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] snapshot.{json,yaml,yml,toml}\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := logger.ParseLevel("error")
	if *verbose {
		level = logger.ParseLevel("debug")
	}
	log := logger.New(level, false)

	snap, err := snapshot.Load(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	gb := snap.Gradebook()
	if *category != "" {
		if !snap.Config.HasCategory(*category) {
			fmt.Fprintf(os.Stderr, "unknown category %q\n", *category)
			os.Exit(1)
		}
		gb = gb.FilterByCategory(*category)
	}
	for _, it := range gb.Orphans() {
		log.Warn("item category is not configured; item ignored", "item_id", it.ID, "category_id", it.CategoryID)
	}

	out, err := render(context.Background(), gb, *workers)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Print(out)
}
