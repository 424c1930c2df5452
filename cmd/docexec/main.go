// docexec runs the code blocks and doctest examples embedded in Markdown and
// reStructuredText documents.
//
// Usage:
//
//	docexec run [files...] [--config docexec.yaml] [--format table|markdown|json]
//	            [--keep-going] [--prefix test_] [--timeout 1m] [--verbose]
//	docexec serve [--config docexec.yaml] [--verbose]
//	docexec version
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
