/*

csdemo is a CLI to parse and summarise Counter-Strike demo files
(Source 1 HL2DEMO / CS:GO and Source 2 PBDEMS2 / CS2).

*/
package main

import (
	"fmt"
	"os"
)

const (
	appName    = "csdemo"
	appVersion = "v0.1.0"
	appHome    = "https://github.com/icza/csdemo"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
