package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ember-ml/ember/autodiff"
	"github.com/ember-ml/ember/nn"
	"github.com/ember-ml/ember/optim"
)

// trainConfig holds XOR training settings, loadable from a YAML file.
//
// Flags override file values; file values override the defaults.
type trainConfig struct {
	LearningRate float64 `yaml:"learning_rate"`
	Steps        int     `yaml:"steps"`
	Seed         int64   `yaml:"seed"`
	Hidden       int     `yaml:"hidden"`
	LogEvery     int     `yaml:"log_every"`
}

func defaultTrainConfig() trainConfig {
	return trainConfig{
		LearningRate: 0.1,
		Steps:        10000,
		Seed:         42,
		Hidden:       4,
		LogEvery:     500,
	}
}

// loadTrainConfig merges defaults, an optional YAML file and explicit flags.
func loadTrainConfig(args []string) trainConfig {
	fs := flag.NewFlagSet("xor", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to a YAML training config")
	lr := fs.Float64("lr", 0, "Learning rate (overrides config)")
	steps := fs.Int("steps", 0, "Training steps (overrides config)")
	seed := fs.Int64("seed", 0, "Initialization seed (overrides config)")
	hidden := fs.Int("hidden", 0, "Hidden layer width (overrides config)")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	cfg := defaultTrainConfig()
	if *configPath != "" {
		raw, err := os.ReadFile(*configPath)
		if err != nil {
			log.Fatalf("reading config: %v", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Fatalf("parsing config: %v", err)
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lr":
			cfg.LearningRate = *lr
		case "steps":
			cfg.Steps = *steps
		case "seed":
			cfg.Seed = *seed
		case "hidden":
			cfg.Hidden = *hidden
		}
	})
	return cfg
}

// runXOR trains a 2 → hidden(tanh) → 1 MLP on the XOR dataset with plain
// gradient descent.
func runXOR(args []string) {
	cfg := loadTrainConfig(args)

	inputs := [4][2]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	targets := [4]float64{0, 1, 1, 0}

	fmt.Println("\n--- Training Demo: Solving XOR ---")
	fmt.Printf("Model: 2 -> %d(tanh) -> 1 | lr=%g seed=%d\n", cfg.Hidden, cfg.LearningRate, cfg.Seed)

	tape := autodiff.New()
	model := nn.NewMLP(tape, 2, []int{cfg.Hidden, 1}, nn.Config{Seed: cfg.Seed})
	optimizer := optim.NewSGD(tape, optim.SGDConfig{LR: cfg.LearningRate})

	fmt.Printf("Model initialized (%d parameters). Training for %d steps...\n",
		model.NumParameters(), cfg.Steps)

	for step := 0; step < cfg.Steps; step++ {
		preds := make([]autodiff.Handle, len(inputs))
		targs := make([]autodiff.Handle, len(inputs))
		for i := range inputs {
			x0 := must(tape.Leaf(inputs[i][0]))
			x1 := must(tape.Leaf(inputs[i][1]))
			targs[i] = must(tape.Leaf(targets[i]))

			out, err := model.Forward([]autodiff.Handle{x0, x1})
			if err != nil {
				log.Fatalf("forward: %v", err)
			}
			preds[i] = out[0]
		}

		totalLoss := must(nn.SumSquaredError(tape, preds, targs))
		lossVal := must(tape.Value(totalLoss))

		optimizer.ZeroGrad()
		if err := tape.Backward(totalLoss, autodiff.BackwardConfig{}); err != nil {
			log.Fatalf("backward: %v", err)
		}
		optimizer.Step()

		if step%cfg.LogEvery == 0 {
			fmt.Printf("Step: %-5d | Loss: %.8f\n", step, lossVal)
		}
	}

	fmt.Println("Results:")
	for i := range inputs {
		x0 := must(tape.Leaf(inputs[i][0]))
		x1 := must(tape.Leaf(inputs[i][1]))
		out, err := model.Forward([]autodiff.Handle{x0, x1})
		if err != nil {
			log.Fatalf("forward: %v", err)
		}
		fmt.Printf("%.0f ^ %.0f = %f (target: %.0f)\n",
			inputs[i][0], inputs[i][1], must(tape.Value(out[0])), targets[i])
		tape.Reset()
	}

	model.Free()
}
