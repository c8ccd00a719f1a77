// cmd/decoder/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tamzrod/accessory-decoder/internal/address"
	"github.com/tamzrod/accessory-decoder/internal/config"
	"github.com/tamzrod/accessory-decoder/internal/cv"
	"github.com/tamzrod/accessory-decoder/internal/decoder"
	"github.com/tamzrod/accessory-decoder/internal/logging"
	"github.com/tamzrod/accessory-decoder/internal/mqtt"
	"github.com/tamzrod/accessory-decoder/internal/status"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "accessory-decoder",
		Short: "Switch accessory decoder with RS-bus feedback",
		Long: `Drives four coil pairs on accessory commands, debounces eight feedback
inputs and reports switch positions to the command station over RS-bus.

Hardware and bus backends, CV overrides and the optional MQTT bridge are
selected in a YAML configuration file.`,
		SilenceUsage: true,
	}
	root.AddCommand(runCmd(), addressCmd(), cvsCmd())
	return root
}

// loadConfig reads, validates and normalizes a configuration file.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)
	return cfg, nil
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <config.yaml>",
		Short: "Run the decoder until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0])
		},
	}
}

func run(cfgPath string) error {
	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	log := logging.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)

	store, err := cv.NewStore(cfg.Decoder.CVOverrides())
	if err != nil {
		return err
	}

	// --------------------
	// Hardware + bus
	// --------------------

	hwIO, err := openIO(cfg.Hardware)
	if err != nil {
		return err
	}
	defer hwIO.Close()

	bus, closeBus, err := openBus(cfg.RSBus, log)
	if err != nil {
		return err
	}
	defer closeBus()

	// --------------------
	// Decoder (+ optional MQTT bridge)
	// --------------------

	var bridge *mqtt.Bridge

	d, err := decoder.New(decoder.Config{
		Store:         store,
		IO:            hwIO,
		Bus:           bus,
		Log:           log,
		CommandBuffer: cfg.Decoder.CommandBuffer,
		OnStatus: func(s status.Snapshot) {
			if bridge != nil {
				bridge.PublishStatus(s)
			}
		},
	})
	if err != nil {
		return err
	}

	if m := cfg.MQTT; m != nil {
		bridge, err = mqtt.Connect(mqtt.Config{
			Broker:      m.Broker,
			ClientID:    m.ClientID,
			TopicPrefix: m.TopicPrefix,
			QoS:         m.QoS,
		}, d, log)
		if err != nil {
			return err
		}
		defer bridge.Close()
		bridge.PublishStatus(d.Snapshot())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("decoder running",
		"config", cfgPath,
		"hardware", cfg.Hardware.Driver,
		"rsbus", cfg.RSBus.Driver,
		"tick_ms", cfg.Decoder.TickMs,
	)

	// Blocks until SIGINT/SIGTERM; coils are released on return.
	d.Run(ctx, time.Duration(cfg.Decoder.TickMs)*time.Millisecond)

	log.Info("decoder stopped")
	return nil
}

func addressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address <config.yaml>",
		Short: "Print the addresses resolved from the configured CVs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args[0])
			if err != nil {
				return err
			}
			store, err := cv.NewStore(cfg.Decoder.CVOverrides())
			if err != nil {
				return err
			}

			a := address.Resolve(store)
			out := cmd.OutOrStdout()

			if a.DecoderValid() {
				fmt.Fprintf(out, "decoder:  %d\n", a.Decoder)
			} else {
				fmt.Fprintf(out, "decoder:  unaddressed\n")
			}
			if a.FeedbackSet() {
				fmt.Fprintf(out, "feedback: %d\n", a.Feedback)
			} else {
				fmt.Fprintf(out, "feedback: not set\n")
			}
			if a.Loco != address.UnreachableLoco {
				fmt.Fprintf(out, "loco:     %d\n", a.Loco)
			} else {
				fmt.Fprintf(out, "loco:     unreachable\n")
			}
			return nil
		},
	}
}

func cvsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cvs <config.yaml>",
		Short: "Print the effective CV table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args[0])
			if err != nil {
				return err
			}
			store, err := cv.NewStore(cfg.Decoder.CVOverrides())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for n := 1; n <= cv.Count; n++ {
				mode := "ro"
				if cv.Writable(n) {
					mode = "rw"
				}
				fmt.Fprintf(out, "CV%-3d %3d  0x%02x  %s\n", n, store.Get(n), store.Get(n), mode)
			}
			return nil
		},
	}
}
