// Command merge-coverage combines multiple go test coverage profiles into
// one, keeping a single mode line. Used to merge unit and integration
// coverage runs in CI.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "usage: %s profile1.out profile2.out [...]\n", os.Args[0])
		os.Exit(1)
	}

	out := bufio.NewWriter(os.Stdout)
	defer func() { _ = out.Flush() }()

	wroteMode := false
	for _, name := range os.Args[1:] {
		if err := appendProfile(out, name, &wroteMode); err != nil {
			fmt.Fprintf(os.Stderr, "merge-coverage: %v\n", err)
			os.Exit(1)
		}
	}
}

func appendProfile(out *bufio.Writer, name string, wroteMode *bool) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "mode:") {
			if *wroteMode {
				continue
			}
			*wroteMode = true
		} else if line == "" {
			continue
		}
		fmt.Fprintln(out, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	return nil
}
