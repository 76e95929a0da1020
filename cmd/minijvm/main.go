// Command minijvm loads a single Java class file and runs its main method.
package main

import (
	"os"

	"github.com/cwbudde/minijvm/cmd/minijvm/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
