package main

import (
	"github.com/andrescamacho/gatherbot-go/internal/adapters/cli"
)

func main() {
	cli.Execute()
}
