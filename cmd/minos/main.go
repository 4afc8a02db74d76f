// Command minos boots the teaching-kernel simulator.
package main

import (
	"github.com/tebeka/atexit"
)

func main() {
	defer atexit.Exit(0)

	Execute()
}
