// trainlaunch - launch the training program with a fixed run configuration
package main

import (
	"os"

	"github.com/Strasser-Pablo/trainlaunch/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
