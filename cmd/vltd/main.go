package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/noro/vault-core/vaultdaemon"
)

var Version = "0.0.0"

func main() {
	help := flag.Bool("help", false, "Show usage information")
	version := flag.Bool("version", false, "Show version")

	flag.Usage = func() {
		_, _ = fmt.Fprint(flag.CommandLine.Output(), `vltd - session-cache daemon for the 'vlt' cli.

Usage: vltd [options]

Caches unlocked vault sessions so 'vlt sync' commands don't re-derive the
account unlock key on every invocation. Runs over a UNIX socket
at /run/user/$UID/vlt.sock and takes no arguments.

Options:
`)

		flag.PrintDefaults()
	}

	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	if *version {
		fmt.Printf("%v", Version)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer cancel()

	vaultdaemon.Run(ctx)
}
