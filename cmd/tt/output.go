package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// outputJSON outputs data as pretty-printed JSON to stdout.
func outputJSON(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

// printWarnings lists warnings on stderr unless --quiet is set.
func printWarnings(warnings []string) {
	if quietFlag {
		return
	}
	for _, w := range warnings {
		WarnError("%s", w)
	}
}
