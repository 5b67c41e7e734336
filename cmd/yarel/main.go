package main

import (
	"os"

	"github.com/yarel-lang/yarel/internal/maincmd"
)

func main() {
	c := &maincmd.Cmd{}
	os.Exit(c.Main(os.Args[1:]))
}
