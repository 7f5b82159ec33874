// Command hive is an interactive configuration subshell over the core's
// JSON config document: ls/get/rm/edit by "/"-separated path.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
