package main

import (
	"os"

	clog "github.com/charmbracelet/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		clog.Error("sysadminsim failed", "err", err)
		os.Exit(1)
	}
}
