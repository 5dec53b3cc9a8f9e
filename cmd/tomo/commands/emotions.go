package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomoai/tomo/pkg/companion"
)

var emotionsURLs bool

var emotionsCmd = &cobra.Command{
	Use:   "emotions",
	Short: "List emotion artwork keys",
	Long: `List every emotion key an emotion pack provides.

With --urls and a configured api_url and character_id, also prints the
artwork URL for each key.`,
	RunE: runEmotions,
}

func init() {
	emotionsCmd.Flags().BoolVar(&emotionsURLs, "urls", false, "print artwork URLs for the configured character")
	rootCmd.AddCommand(emotionsCmd)
}

func runEmotions(cmd *cobra.Command, args []string) error {
	if !emotionsURLs {
		for _, key := range companion.AllKeys() {
			fmt.Println(key)
		}
		return nil
	}

	cfg, err := getConfig()
	if err != nil {
		return err
	}
	if cfg.APIURL == "" || cfg.CharacterID == "" {
		return fmt.Errorf("--urls needs api_url and character_id configured")
	}
	lookup, err := companion.NewRESTLookup(cfg.APIURL, cfg.DeviceID)
	if err != nil {
		return err
	}
	for _, key := range companion.AllKeys() {
		u, err := lookup.EmotionImageURL(cfg.CharacterID, key)
		if err != nil {
			return err
		}
		fmt.Printf("%-20s %s\n", key, u)
	}
	return nil
}
