// Package sysignals bridges OS quit signals to the application's fatal error channel
package sysignals

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/naughtygopher/errors"
)

var ErrSigQuit = errors.New("received quit signal")

// NotifyErrorOnQuit blocks waiting for an interrupt/termination signal, and pushes
// ErrSigQuit to fatalErr when one arrives. The receiving end treats it as a clean exit.
func NotifyErrorOnQuit(fatalErr chan<- error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(
		sigChan,
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)

	sig := <-sigChan
	fatalErr <- errors.Wrap(ErrSigQuit, fmt.Sprintf("%v", sig))
}
