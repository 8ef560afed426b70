package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ahmedtd/backprop/toolbox"
	"github.com/google/subcommands"
	"k8s.io/klog/v2"
)

// GraphCommand evaluates out = activation(w1*x1 + w2*x2) on a computation
// graph and prints the value and the gradients of out.
type GraphCommand struct {
	x1, x2     float64
	w1, w2     float64
	activation string

	out io.Writer
}

var _ subcommands.Command = (*GraphCommand)(nil)

func (*GraphCommand) Name() string {
	return "graph"
}

func (*GraphCommand) Synopsis() string {
	return "Run forward and backward passes over a one-neuron computation graph"
}

func (*GraphCommand) Usage() string {
	return ``
}

func (c *GraphCommand) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.x1, "x1", 1.0, "Value of the first input")
	f.Float64Var(&c.x2, "x2", 0.5, "Value of the second input")
	f.Float64Var(&c.w1, "w1", 0.8, "Edge weight of the first input")
	f.Float64Var(&c.w2, "w2", -0.3, "Edge weight of the second input")
	f.StringVar(&c.activation, "activation", "sigmoid", "Output activation (sigmoid, relu, tanh, linear)")
}

func (c *GraphCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		klog.Errorf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// GraphResult holds the outputs of the graph demo.
type GraphResult struct {
	Output     float32
	Input1Grad float32
	Input2Grad float32
	SumGrad    float32
}

// runNeuronGraph builds out = activation(w1*x1 + w2*x2), runs the forward
// pass, seeds d(out)/d(out) = 1 and runs the backward pass.
func runNeuronGraph(x1, x2, w1, w2 float32, activation toolbox.ActivationType) (GraphResult, error) {
	g := toolbox.NewGraph()
	in1 := g.Input(x1)
	in2 := g.Input(x2)
	sum := g.Sum()
	out := g.Activation(activation)

	g.Connect(sum, in1, w1)
	g.Connect(sum, in2, w2)
	g.Connect(out, sum, 1)
	g.Schedule(sum, out)

	if err := g.Validate(); err != nil {
		return GraphResult{}, err
	}

	g.ForwardPass()
	g.ResetGradients()
	g.SetGradient(out, 1)
	g.BackwardPass()

	return GraphResult{
		Output:     g.Value(out),
		Input1Grad: g.Gradient(in1),
		Input2Grad: g.Gradient(in2),
		SumGrad:    g.Gradient(sum),
	}, nil
}

func (c *GraphCommand) executeErr(ctx context.Context) error {
	out := c.out
	if out == nil {
		out = os.Stdout
	}

	activation, err := toolbox.ParseActivation(c.activation)
	if err != nil {
		return fmt.Errorf("while parsing --activation: %w", err)
	}

	res, err := runNeuronGraph(float32(c.x1), float32(c.x2), float32(c.w1), float32(c.w2), activation)
	if err != nil {
		return fmt.Errorf("while evaluating graph: %w", err)
	}

	fmt.Fprintf(out, "Forward pass result: %v\n", res.Output)
	fmt.Fprintf(out, "Input1 gradient: %v\n", res.Input1Grad)
	fmt.Fprintf(out, "Input2 gradient: %v\n", res.Input2Grad)
	fmt.Fprintf(out, "Sum gradient: %v\n", res.SumGrad)
	return nil
}
