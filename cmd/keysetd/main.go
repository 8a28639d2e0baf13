package main

import (
	"github.com/joeydtaylor/steeze-keyset/pkg/serverfx"
	"go.uber.org/fx"
)

func main() {
	fx.New(serverfx.Module(serverfx.WithService("keysetd"))).Run()
}
