package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler creates a context that is canceled on the first SIGINT
// or SIGTERM. A second signal exits the process immediately.
func SetupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
		sig := <-sigChan
		fmt.Fprintf(os.Stderr, "received %s again, exiting\n", sig)
		os.Exit(ExitFailure)
	}()

	return ctx
}

// NotifyReload returns a channel that receives a value for each SIGHUP
// until ctx is done. Signals that arrive while a reload is still pending
// are coalesced.
func NotifyReload(ctx context.Context) <-chan struct{} {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP)

	reload := make(chan struct{}, 1)
	go func() {
		defer signal.Stop(sigChan)
		for {
			select {
			case <-sigChan:
				select {
				case reload <- struct{}{}:
				default:
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return reload
}
