package main

import (
	"github.com/tebeka/atexit"
)

func main() {
	code := 0
	if err := rootCmd.Execute(); err != nil {
		code = 1
	}
	// Runs the registered output stage and recorder handlers before exiting.
	atexit.Exit(code)
}
