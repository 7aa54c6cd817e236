package main

import (
	"os"

	"github.com/chronodrachma/flashlend/pkg/logging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logging.L.Error("command failed", "err", err)
		os.Exit(1)
	}
}
