package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomoai/tomo/pkg/audio/capture"
	"github.com/tomoai/tomo/pkg/audio/playback"
	"github.com/tomoai/tomo/pkg/audio/portaudio"
	"github.com/tomoai/tomo/pkg/cli"
	"github.com/tomoai/tomo/pkg/companion"
)

var (
	callServer    string
	callCharacter string
	callName      string
	callTextOnly  bool
)

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Start a realtime call with a character",
	Long: `Start a realtime call.

Connects to the configured server, streams your microphone, plays the
agent's speech, and prints the transcript as it accrues. Type a line to
send text; Ctrl-C hangs up.`,
	RunE: runCall,
}

func init() {
	callCmd.Flags().StringVar(&callServer, "server", "", "websocket URL (overrides config)")
	callCmd.Flags().StringVar(&callCharacter, "character", "", "character id (overrides config)")
	callCmd.Flags().StringVar(&callName, "name", "", "display name (overrides config)")
	callCmd.Flags().BoolVar(&callTextOnly, "text-only", false, "do not open the microphone")
	rootCmd.AddCommand(callCmd)
}

func runCall(cmd *cobra.Command, args []string) error {
	cfg, err := getConfig()
	if err != nil {
		return err
	}

	server := firstNonEmpty(callServer, cfg.ServerURL)
	if server == "" {
		return fmt.Errorf("no server URL; set one with 'tomo config set server_url ...'")
	}
	characterID := firstNonEmpty(callCharacter, cfg.CharacterID)

	mode := companion.ModeVoice
	if callTextOnly {
		mode = companion.ModeText
	}

	styles := cli.NewStyles(cli.DefaultTheme)

	characterName := characterID
	var media companion.MediaResolver
	if cfg.APIURL != "" {
		lookup, err := companion.NewRESTLookup(cfg.APIURL, cfg.DeviceID)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		if characterID != "" {
			if summary, err := lookup.Summary(ctx, characterID); err == nil {
				characterName = summary.Name
				if summary.HasEmotionArtwork {
					media = lookup
				}
			} else {
				cli.PrintWarning("character lookup failed: %v", err)
			}
		}
	}
	if characterName == "" {
		characterName = "companion"
	}

	opts := []companion.CallOption{
		companion.WithPlayer(playback.NewScheduler(playback.WithOutput(&portaudio.Speaker{}))),
	}
	if mode == companion.ModeVoice {
		opts = append(opts, companion.WithMicrophone(capture.NewRecorder(portaudio.Microphone{})))
	}

	call := companion.NewCall(companion.NewConn(server), opts...)
	if err := call.Start(cmd.Context(), companion.ConnectOptions{
		DeviceID:    cfg.DeviceID,
		CharacterID: characterID,
		DisplayName: firstNonEmpty(callName, cfg.DisplayName),
		Location:    cfg.Location,
		Mode:        mode,
	}); err != nil {
		call.Hangup()
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// Typed lines become text messages.
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				lines <- line
			}
		}
	}()

	fmt.Println(styles.Title.Render("calling " + characterName))

	var shown callView
	var last companion.CallState
	for {
		select {
		case <-sigCh:
			fmt.Println(styles.Dim.Render("hanging up"))
			call.Hangup()
			printSummary(styles, last, characterName)
			return nil

		case line := <-lines:
			call.SendText(line)

		case snap, ok := <-call.Updates():
			if !ok {
				printSummary(styles, last, characterName)
				return nil
			}
			if snap.Conn != companion.StateDisconnected || len(snap.Transcript) > 0 {
				last = snap
			}
			shown.render(styles, snap, characterName, media, characterID)
			if snap.Conn == companion.StateDisconnected && !shown.connected {
				// Never reached connected: the connect error was
				// already printed; stop instead of idling.
				call.Hangup()
				return nil
			}
		}
	}
}

// printSummary renders the finished call as a framed recap.
func printSummary(styles cli.Styles, last companion.CallState, characterName string) {
	if len(last.Transcript) == 0 {
		return
	}
	lines := make([]string, 0, len(last.Transcript))
	for _, entry := range last.Transcript {
		who := characterName
		if entry.Speaker == companion.SpeakerUser {
			who = "you"
		}
		lines = append(lines, who+": "+entry.Text)
	}
	frame := cli.CallFrame{
		Styles: styles,
		Title:  "call with " + characterName,
		Status: last.Duration.Truncate(time.Second).String(),
		Lines:  lines,
		Footer: "session " + last.SessionID,
	}
	fmt.Println(frame.Render(72, len(lines)+4))
}

// callView prints only what changed between snapshots, so the call
// reads as a scrolling transcript.
type callView struct {
	connected  bool
	printed    int
	emotionKey string
	searching  bool
	speaking   bool
	err        string
}

func (v *callView) render(styles cli.Styles, snap companion.CallState, characterName string, media companion.MediaResolver, characterID string) {
	if snap.Conn == companion.StateConnected && !v.connected {
		v.connected = true
		cli.PrintSuccess("connected (session %s)", snap.SessionID)
	}

	for ; v.printed < len(snap.Transcript); v.printed++ {
		entry := snap.Transcript[v.printed]
		switch entry.Speaker {
		case companion.SpeakerUser:
			fmt.Println(styles.User.Render("you: ") + entry.Text)
		default:
			fmt.Println(styles.Agent.Render(characterName+": ") + entry.Text)
		}
	}

	if key := snap.Emotion.Key(); key != v.emotionKey {
		v.emotionKey = key
		line := "emotion: " + key
		if media != nil {
			if u, err := media.EmotionImageURL(characterID, key); err == nil {
				line += "  " + u.String()
			}
		}
		fmt.Println(styles.Dim.Render(line))
	}

	if snap.Searching != v.searching {
		v.searching = snap.Searching
		if snap.Searching {
			fmt.Println(styles.Dim.Render("searching with " + snap.SearchTool + "..."))
		}
	}

	if snap.Speaking != v.speaking {
		v.speaking = snap.Speaking
		if snap.Speaking {
			fmt.Println(styles.Dim.Render(characterName + " is speaking"))
		}
	}

	if snap.Err != "" && snap.Err != v.err {
		v.err = snap.Err
		fmt.Println(styles.Alert.Render("error: " + snap.Err))
	}
	if snap.Err == "" {
		v.err = ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
