package conventions

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/meenmo/curvecal/market"
)

type Output struct {
	Indices     []string            `json:"indices"`
	Conventions map[string][]string `json:"conventions"`
}

func Run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("conventions", flag.ContinueOnError)
	fs.SetOutput(stderr)
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		fmt.Fprintln(stderr, "Usage:")
		fmt.Fprintln(stderr, "  calibrate conventions")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Print the built-in index and convention names as JSON.")
		return 0
	}

	out := Output{Indices: market.IndexNames(), Conventions: market.ConventionNames()}
	b, _ := json.Marshal(out)
	fmt.Fprintln(stdout, string(b))
	return 0
}
