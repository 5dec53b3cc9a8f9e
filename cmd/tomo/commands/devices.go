package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomoai/tomo/pkg/audio/portaudio"
	"github.com/tomoai/tomo/pkg/cli"
)

var devicesJSON bool

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input/output devices",
	RunE:  runDevices,
}

func init() {
	devicesCmd.Flags().BoolVar(&devicesJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	devices, err := portaudio.Devices()
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}

	if devicesJSON {
		return cli.Output(cmd.OutOrStdout(), devices, cli.FormatJSON)
	}

	styles := cli.NewStyles(cli.DefaultTheme)
	for _, d := range devices {
		marker := ""
		if d.IsDefaultInput {
			marker += " " + styles.Title.Render("[default input]")
		}
		if d.IsDefaultOutput {
			marker += " " + styles.Title.Render("[default output]")
		}
		fmt.Printf("%d: %s%s\n", d.Index, d.Name, marker)
		fmt.Println(styles.Dim.Render(fmt.Sprintf("   in %d / out %d channels, %.0f Hz",
			d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate)))
	}
	return nil
}
