package main

import (
	"fmt"
	"os"
	"time"
)

func main() {
	if err := newCLI(os.Stdout).execute(os.Args[1:], 5*time.Minute); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
