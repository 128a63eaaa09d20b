//go:build windows

package main

import (
	"os"
	"os/signal"
)

// notifySignals registers the signals interrupting a run. Windows only has
// os.Interrupt (Ctrl+C).
func notifySignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
