// Command labcheck validates challenge definitions and grades
// practice machines against them over SSH.
package main

import (
	"os"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
