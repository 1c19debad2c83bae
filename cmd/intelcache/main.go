// Command intelcache prints intelligence reports through the report cache.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"
	logcli "github.com/apex/log/handlers/cli"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	initLogger()

	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// initLogger reads the level from INTELCACHE_LOG, defaulting to warn.
func initLogger() {
	level := strings.ToLower(os.Getenv("INTELCACHE_LOG"))
	if level == "" {
		level = "warn"
	}
	log.SetHandler(logcli.New(os.Stderr))
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.WarnLevel
	}
	log.SetLevel(lvl)
}
