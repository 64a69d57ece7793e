// Command etymond runs the etymology lookup server: the HTTP API, the
// provider client with credential rotation, the result cache, and the
// gamification engine over SQLite.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Configuration file path")
	flag.Parse()

	if err := run(context.Background(), configPath); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
