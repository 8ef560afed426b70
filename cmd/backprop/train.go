package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/ahmedtd/backprop/toolbox"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

type TrainCommand struct {
	configFile string

	epochs           int
	learningRate     float64
	seed             int64
	initStdDev       float64
	reportEvery      int
	layers           string
	textbookBackprop bool
	dataFile         string

	progress     bool
	printWeights bool

	// Where results are printed.  Defaults to os.Stdout.
	out io.Writer
}

var _ subcommands.Command = (*TrainCommand)(nil)

func (*TrainCommand) Name() string {
	return "train"
}

func (*TrainCommand) Synopsis() string {
	return "Train a network and print its predictions"
}

func (*TrainCommand) Usage() string {
	return `train [flags]

Trains on the XOR truth table unless --data-file names an .npz archive with
arrays x and y.
`
}

func (c *TrainCommand) SetFlags(f *flag.FlagSet) {
	def := DefaultConfig()

	f.StringVar(&c.configFile, "config", "", "Path to a YAML training config; flags set explicitly override it")

	f.IntVar(&c.epochs, "epochs", def.Epochs, "Number of passes over the training set")
	f.Float64Var(&c.learningRate, "learning-rate", float64(def.LearningRate), "Gradient descent step size")
	f.Int64Var(&c.seed, "seed", def.Seed, "Seed for weight initialization")
	f.Float64Var(&c.initStdDev, "init-stddev", float64(def.InitStdDev), "Standard deviation of the initial weights and biases")
	f.IntVar(&c.reportEvery, "report-every", def.ReportEvery, "Log the mean loss every N epochs (0 logs only the last epoch)")
	f.StringVar(&c.layers, "layers", toolbox.FormatTopology(def.Layers), "Comma-separated in:out:activation layers")
	f.BoolVar(&c.textbookBackprop, "textbook-backprop", def.TextbookBackprop, "Propagate input gradients with the pre-update weights")
	f.StringVar(&c.dataFile, "data-file", def.DataFile, "Path to an .npz training set (arrays x and y); XOR when empty")

	f.BoolVar(&c.progress, "progress", false, "Show a progress bar instead of periodic loss lines")
	f.BoolVar(&c.printWeights, "print-weights", false, "Print the weights before and after training")
}

func (c *TrainCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx, f); err != nil {
		klog.Errorf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// config merges the defaults, the config file and the explicitly set flags.
func (c *TrainCommand) config(f *flag.FlagSet) (Config, error) {
	cfg := DefaultConfig()
	if c.configFile != "" {
		var err error
		cfg, err = LoadConfig(c.configFile, cfg)
		if err != nil {
			return Config{}, err
		}
	}

	var err error
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "epochs":
			cfg.Epochs = c.epochs
		case "learning-rate":
			cfg.LearningRate = float32(c.learningRate)
		case "seed":
			cfg.Seed = c.seed
		case "init-stddev":
			cfg.InitStdDev = float32(c.initStdDev)
		case "report-every":
			cfg.ReportEvery = c.reportEvery
		case "textbook-backprop":
			cfg.TextbookBackprop = c.textbookBackprop
		case "data-file":
			cfg.DataFile = c.dataFile
		case "layers":
			var layers []toolbox.LayerSpec
			layers, err = toolbox.ParseTopology(c.layers)
			if err == nil {
				cfg.Layers = layers
			}
		}
	})
	if err != nil {
		return Config{}, fmt.Errorf("while parsing --layers: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *TrainCommand) executeErr(ctx context.Context, f *flag.FlagSet) error {
	out := c.out
	if out == nil {
		out = os.Stdout
	}

	cfg, err := c.config(f)
	if err != nil {
		return err
	}
	klog.V(1).Infof("config epochs=%d learning-rate=%v seed=%d init-stddev=%v layers=%s propagation=%v",
		cfg.Epochs, cfg.LearningRate, cfg.Seed, cfg.InitStdDev, toolbox.FormatTopology(cfg.Layers), cfg.Propagation())

	samples := toolbox.XORSamples()
	if cfg.DataFile != "" {
		samples, err = toolbox.LoadNPZ(cfg.DataFile)
		if err != nil {
			return fmt.Errorf("while loading training set: %w", err)
		}
		klog.Infof("Loaded %s samples from %s", humanize.Comma(int64(len(samples))), cfg.DataFile)
	}

	r := rand.New(rand.NewSource(cfg.Seed))
	net, err := toolbox.NewNetwork(cfg.Layers, r, cfg.InitStdDev, cfg.Propagation())
	if err != nil {
		return fmt.Errorf("while building network: %w", err)
	}

	if c.printWeights {
		fmt.Fprintln(out, "Initial weights:")
		if err := net.WriteArchitecture(out); err != nil {
			return fmt.Errorf("while printing weights: %w", err)
		}
	}

	trainer := &toolbox.Trainer{
		Network:      net,
		Samples:      samples,
		Epochs:       cfg.Epochs,
		LearningRate: cfg.LearningRate,
		ReportEvery:  cfg.ReportEvery,
		Report: func(r toolbox.EpochReport) {
			klog.Infof("epoch=%d loss=%f elapsed=%v", r.Epoch, r.Loss, r.Elapsed)
		},
	}

	if c.progress && cfg.Epochs > 0 {
		bar := progressbar.NewOptions(cfg.Epochs,
			progressbar.OptionSetDescription("Training"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("epochs"),
			progressbar.OptionSetTheme(progressbar.ThemeUnicode),
		)
		trainer.ReportEvery = 1
		trainer.Report = func(r toolbox.EpochReport) {
			bar.Describe(fmt.Sprintf("Training loss=%.5f", r.Loss))
			_ = bar.Add(1)
		}
		defer func() {
			_ = bar.Finish()
			fmt.Fprintln(os.Stderr)
		}()
	}

	loss, err := trainer.Run()
	if err != nil {
		return fmt.Errorf("while training: %w", err)
	}
	klog.Infof("Trained %s epochs over %s samples (%s updates) final-loss=%f",
		humanize.Comma(int64(cfg.Epochs)),
		humanize.Comma(int64(len(samples))),
		humanize.Comma(int64(cfg.Epochs)*int64(len(samples))),
		loss)

	if c.printWeights {
		fmt.Fprintln(out, "Trained weights:")
		if err := net.WriteArchitecture(out); err != nil {
			return fmt.Errorf("while printing weights: %w", err)
		}
	}

	preds, meanLoss, err := toolbox.Evaluate(net, samples)
	if err != nil {
		return fmt.Errorf("while evaluating: %w", err)
	}
	fmt.Fprintln(out, resultsTable(preds))
	fmt.Fprintf(out, "Mean loss: %.6f\n", meanLoss)

	return nil
}

func formatVector(v []float32, precision int) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(float64(x), 'f', precision, 32)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func resultsTable(preds []toolbox.Prediction) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Input", "Predicted", "Target")
	for _, p := range preds {
		t.Row(formatVector(p.Input, -1), formatVector(p.Predicted, 4), formatVector(p.Target, -1))
	}
	return t.String()
}
