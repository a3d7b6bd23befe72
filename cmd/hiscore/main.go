// hiscore keeps a shared high score table in a flat file guarded by an
// advisory file lock.
package main

import (
	"os"

	"github.com/xcawolfe-amzn/hiscore/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
