//go:build !tinygo

// Command keybench runs the controller core on a workstation: a terminal
// key bus, the MIDI line on a serial adapter, and the USB relay fed from a
// host MIDI input.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/chase3718/lou-keys/internal/board"
)

var (
	version = "dev"
)

var (
	serialDev  string
	baud       int
	usbIn      []string
	recordFile string
	logFile    string
	debug      bool
)

// logger is the package-wide structured logger. Safe to use before
// initLogger is called.
var logger = slog.Default()

// initLogger configures the shared slog logger and makes it the default.
func initLogger(debug bool, w io.Writer) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "keybench",
	Short: "Host bench for the lou-keys controller",
	Long: `keybench runs the lou-keys scan loop, mode overlay and USB relay on a
workstation. The computer keyboard stands in for the thirteen keys and the
mode button; messages go out on a serial MIDI adapter.

Examples:
  keybench run --serial /dev/ttyUSB0
  keybench run --usb-in keystep --record take.mid
  keybench ports`,
	Version:      version,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the controller with a terminal key bus",
	Args:  cobra.NoArgs,
	RunE:  runBench,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports and host MIDI inputs",
	Args:  cobra.NoArgs,
	RunE:  runPorts,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging (adds source location)")

	runCmd.Flags().StringVarP(&serialDev, "serial", "s", "", "Serial MIDI device (empty discards output)")
	runCmd.Flags().IntVarP(&baud, "baud", "b", board.MIDIBaud, "Serial baud rate")
	runCmd.Flags().StringSliceVarP(&usbIn, "usb-in", "u", nil, "Preferred host MIDI input name patterns")
	runCmd.Flags().StringVarP(&recordFile, "record", "r", "", "Write transmitted messages to this .mid file")
	runCmd.Flags().StringVar(&logFile, "log", "keybench.log", "Log file while the terminal UI is up")

	rootCmd.AddCommand(runCmd, portsCmd)
}

func runPorts(cmd *cobra.Command, _ []string) error {
	initLogger(debug, os.Stderr)
	out := cmd.OutOrStdout()

	ports, err := board.SerialPorts()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "serial ports:")
	if len(ports) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, p := range ports {
		fmt.Fprintf(out, "  %s\n", p)
	}

	inputs, err := board.MIDIInputs()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "midi inputs:")
	if len(inputs) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, in := range inputs {
		fmt.Fprintf(out, "  %s\n", in)
	}
	return nil
}
