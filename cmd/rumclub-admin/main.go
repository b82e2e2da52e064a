// Command rumclub-admin runs one-off operator tasks against the ledger:
// setting the club password, importing the roster, year-end operations,
// exports and snapshot history.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rumclub/internal/cli"
	"rumclub/internal/log"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentAdmin)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &admin{cfg: cfg, logger: logger, stdin: os.Stdin, stdout: os.Stdout}
	err := a.run(ctx, os.Args[1:])
	if errors.Is(err, errUsage) {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Command failed", log.FieldError, err)
		os.Exit(1)
	}
}
