// Command backprop trains a small fully-connected network with per-sample
// backpropagation and demonstrates a scalar computation graph.
//
// To train on XOR: `go run ./cmd/backprop train --epochs=10000 --learning-rate=0.5`
//
// To run the computation graph demo: `go run ./cmd/backprop graph`
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"k8s.io/klog/v2"
)

func main() {
	klog.InitFlags(nil)

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&TrainCommand{}, "")
	subcommands.Register(&GraphCommand{}, "")

	flag.Parse()
	ctx := context.Background()
	status := subcommands.Execute(ctx)
	klog.Flush()
	os.Exit(int(status))
}
