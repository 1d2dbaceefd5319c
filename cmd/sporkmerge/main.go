// Command sporkmerge is a demo CLI driving merge.Merge over three
// s-expression fixture files, the way the teacher's cmd/zeta-mc wires a
// Globals struct and a handful of flags over its own migration engine.
// It exists only to exercise the pipeline end to end; a real host would
// replace internal/mocktree with its own parser/pretty-printer/matcher.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/manyfold/sporkmerge/contentmerge"
	"github.com/manyfold/sporkmerge/internal/mocktree"
	"github.com/manyfold/sporkmerge/merge"
	"github.com/manyfold/sporkmerge/outputtree"
	"github.com/manyfold/sporkmerge/pcs"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("sporkmerge", flag.ContinueOnError)
	basePath := fs.String("base", "", "path to the base revision's s-expression fixture (omit for an added file)")
	leftPath := fs.String("left", "", "path to the left revision's s-expression fixture (required)")
	rightPath := fs.String("right", "", "path to the right revision's s-expression fixture (required)")
	configPath := fs.String("config", "", "optional TOML file of contentmerge.Options")
	debug := fs.Bool("debug", false, "log per-phase timing to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *leftPath == "" || *rightPath == "" {
		fmt.Fprintln(os.Stderr, "sporkmerge: -left and -right are required")
		return 2
	}

	base, left, right, err := parseFixtures(*basePath, *leftPath, *rightPath)
	if err != nil {
		logrus.Errorf("sporkmerge: %v", err)
		return 2
	}

	opts := merge.DefaultOptions(mocktree.Factory)
	if *configPath != "" {
		contentOpts, err := contentmerge.LoadOptions(*configPath)
		if err != nil {
			logrus.Errorf("sporkmerge: loading -config: %v", err)
			return 2
		}
		opts.ContentOptions = contentOpts
	}
	opts.Debug = *debug

	result, err := merge.Merge(context.Background(), base, left, right, mocktree.Matcher, mocktree.Matcher, opts)
	if err != nil {
		logrus.Errorf("sporkmerge: merge failed: %v", err)
		return 2
	}

	report(result)
	if result.ConflictCount > 0 {
		return 1
	}
	return 0
}

// parseFixtures reads and parses the three revisions. base is allowed to
// be empty, meaning the compilation unit did not exist at base (seed
// scenario: a two-sided addition).
func parseFixtures(basePath, leftPath, rightPath string) (base, left, right pcs.Node, err error) {
	if basePath != "" {
		base, err = parseFile(basePath, pcs.BASE)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	if left, err = parseFile(leftPath, pcs.LEFT); err != nil {
		return nil, nil, nil, err
	}
	if right, err = parseFile(rightPath, pcs.RIGHT); err != nil {
		return nil, nil, nil, err
	}
	return base, left, right, nil
}

func parseFile(path string, rev pcs.Revision) (pcs.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	n, err := mocktree.Parse(string(data), rev)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if n == nil {
		return nil, nil
	}
	return n, nil
}

func report(result outputtree.Result) {
	fmt.Printf("merged: %s\n", result.Tree.String())
	fmt.Printf("conflicts: %d\n", result.ConflictCount)
	for _, c := range result.Conflicts {
		fmt.Printf("  [%s] node=%d role=%s %s\n", c.Kind, c.NodeID, c.Role, c.Detail)
	}
}
