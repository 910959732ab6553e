// Command ringbench runs synthetic load against a ringpool.Pool and reports
// throughput, stealing and per-worker distribution.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
