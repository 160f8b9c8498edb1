package main

import (
	"github.com/robotalks/xmem.go/pkg/cli/sh"
)

//go-build: CGO_ENABLED=0

func main() {
	sh.Main()
}
