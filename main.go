package main

import (
	"github.com/pellucidar/keel/engine"
	"github.com/pellucidar/keel/testbed"
)

func main() {
	config, err := engine.LoadConfig("keel.toml")
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
	if err := e.Run(); err != nil {
		panic(err)
	}
}
