package cmd

import (
	"fmt"
	"os"

	"github.com/GeoffreyPlitt/debuggo"
	"github.com/spf13/cobra"

	"github.com/danielkinahan/dualie/internal/config"
)

var debug = debuggo.Debug("dualie:cmd")

var configPath string

var rootCmd = &cobra.Command{
	Use:   "dualie",
	Short: "A polyphonic dual-oscillator synthesizer",
	Long: `dualie is a polyphonic subtractive synthesizer with two oscillators per voice,
a resonant filter, two ADSR envelopes, an LFO and a drive and reverb master chain.

It plays live from a MIDI input or renders Standard MIDI Files to WAV.
Set DEBUG=dualie:* to see debug output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
}

// loadConfig reads --config, or the defaults when it is unset.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	debug("config: %+v", *cfg)
	return cfg, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
