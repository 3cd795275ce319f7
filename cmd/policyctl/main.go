// Command policyctl checks a repository's label policy file offline.
//
//	policyctl check .mergebot.yml
//	policyctl plan .mergebot.yml build_started --pr 12
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
