package main

import "github.com/joeydtaylor/steeze-keyset/pkg/cli"

func main() {
	cli.Execute()
}
