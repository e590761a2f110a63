// main.go
//
// polykmc entry point; the run and validate commands live in cmd/.

package main

import (
	"github.com/polykmc/polykmc/cmd"
)

func main() {
	cmd.Execute()
}
