package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/teclab/internal/fsutil"
	"github.com/banshee-data/teclab/internal/version"
)

// errUsage means the command line was wrong; usage has already been printed.
var errUsage = errors.New("usage error")

func main() {
	flag.Usage = func() { printUsage(os.Stderr) }
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	a := &app{fs: fsutil.OSFileSystem{}, out: os.Stdout}
	if err := a.run(flag.Arg(0), flag.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		log.Fatalf("teclab %s: %v", flag.Arg(0), err)
	}
}

// app carries the IO the subcommands use.
type app struct {
	fs  fsutil.FileSystem
	out io.Writer
}

func (a *app) run(command string, args []string) error {
	switch command {
	case "render":
		return a.handleRender(args)
	case "label":
		return a.handleLabel(args)
	case "status":
		return a.handleStatus(args)
	case "next":
		return a.handleNext(args)
	case "version":
		fmt.Fprintf(a.out, "teclab version %s (git %s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return nil
	case "help":
		printUsage(a.out)
		return nil
	}
	fmt.Fprintf(a.out, "Unknown command: %s\n\n", command)
	printUsage(a.out)
	return errUsage
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `teclab - label polar TEC maps

Usage: teclab <command> [options]

Commands:
  render     Render a map as a PNG heatmap and/or an HTML report
  label      Replay a gesture script onto a map, aggregate and save the labels
  status     List labelled and unsure maps
  next       Print a random map that has not been labelled
  version    Show teclab version
  help       Show this help message

Common Flags:
  --config <file>   JSON config file (defaults to config/teclab.defaults.json if present)
  --data <dir>      Directory of YYYY_MM_tec.json map bundles
  --db <file>       Label database
  --demo            Use synthetic demo maps instead of --data

Examples:
  # Render the first demo map with its stored labels
  teclab render --demo --png map.png --html map.html

  # Label the next unlabelled map from a recorded script
  teclab label --data ./data --script strokes.json --unsure`)
}
