package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	productbooth "github.com/menta2k/product-booth"
)

func main() {
	root := newRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(productbooth.Version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
