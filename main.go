/*
Demo application for the engine package. It loads the testbed scene and runs
until the window closes or a termination signal arrives.
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/helios/engine"
	"github.com/spaghettifunk/helios/testbed"
)

func main() {
	config, err := engine.LoadApplicationConfig("testbed/config.toml")
	if err != nil {
		panic(err)
	}

	game := testbed.NewTestGame(config)

	e, err := engine.New(game)
	if err != nil {
		panic(err)
	}

	if err := e.Initialize(); err != nil {
		panic(err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// start shutdown goroutine
	go func() {
		<-sigCh
		_ = e.Shutdown()
	}()

	if err := e.Run(); err != nil {
		panic(err)
	}

	if err := e.Shutdown(); err != nil {
		panic(err)
	}
}
