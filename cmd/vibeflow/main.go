// Command vibeflow inspects and maintains the VibeFlow project store.
package main

import (
	"os"

	"github.com/AndrewLang/matrix-codex-flow/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
