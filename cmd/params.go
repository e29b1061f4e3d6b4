package cmd

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/danielkinahan/dualie/internal/synth"
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "List the synthesizer parameters",
	Long: `List every panel parameter with its config name, default raw value, the
value that maps to and the MIDI controller assigned to it.

The controller assignments come from cc_map in the config when set.`,
	Args: cobra.NoArgs,
	RunE: runParams,
}

func init() {
	rootCmd.AddCommand(paramsCmd)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

func runParams(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}
	fmt.Println(paramTable(opts))
	return nil
}

func paramTable(opts synth.Options) string {
	ccMap := opts.CCMap
	if ccMap == nil {
		ccMap = synth.DefaultCCMap()
	}
	ccs := make(map[synth.ParamID][]uint8)
	for cc, id := range ccMap {
		ccs[id] = append(ccs[id], cc)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("NAME", "LABEL", "RAW", "VALUE", "CC").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for id := synth.ParamID(0); id < synth.NumParams; id++ {
		spec := id.Spec()
		raw := spec.Default
		if v, ok := opts.Params[id]; ok {
			raw = v
		}
		var cc string
		if list := ccs[id]; len(list) > 0 {
			slices.Sort(list)
			for i, n := range list {
				if i > 0 {
					cc += ","
				}
				cc += strconv.Itoa(int(n))
			}
		}
		t.Row(spec.Name, spec.Label, strconv.Itoa(int(raw)),
			synth.FormatValue(id, synth.Scale(id, raw, opts.CutoffCurve)), cc)
	}
	return t.String()
}
