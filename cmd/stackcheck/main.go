// Command stackcheck verifies a deployed API and web stack.
package main

import (
	"context"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/jonwraymond/stackcheck/internal/cli"
	"github.com/jonwraymond/stackcheck/observe"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) (code int) {
	defer func() {
		if r := recover(); r != nil {
			observe.NewLoggerWithWriter("error", os.Stderr).Error(ctx, "panic",
				observe.Field{Key: "panic", Value: r},
				observe.Field{Key: "stack", Value: string(debug.Stack())},
			)
			code = 1
		}
	}()
	return cli.Execute(ctx)
}
