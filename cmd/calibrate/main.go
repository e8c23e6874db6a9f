package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/meenmo/curvecal/cmd/calibrate/internal/conventions"
	"github.com/meenmo/curvecal/cmd/calibrate/internal/curves"
	"github.com/meenmo/curvecal/cmd/calibrate/internal/price"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "curves":
		return curves.Run(args[1:], stdin, stdout, stderr)
	case "price":
		return price.Run(args[1:], stdin, stdout, stderr)
	case "conventions":
		return conventions.Run(args[1:], stdout, stderr)
	case "-h", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: calibrate <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  curves       Calibrate curve groups to market quotes")
	fmt.Fprintln(w, "  price        Calibrate, then price swaps on the calibrated curves")
	fmt.Fprintln(w, "  conventions  List built-in indices and conventions")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run `calibrate <command> -h` for command-specific help.")
}
