package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielkinahan/dualie/internal/gomidi"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI input ports",
	Long:  `List the MIDI inputs that play --port can open.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := gomidi.InPorts()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No MIDI inputs found")
			return nil
		}
		for i, name := range names {
			fmt.Printf("%d: %s\n", i, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}
