/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/allbin/scanbridge"
	"github.com/allbin/scanbridge/internal/logging"
	"github.com/allbin/scanbridge/serial"
)

const (
	formatText = "text"
	formatWire = "wire"
	formatJSON = "json"
)

var (
	errUnknownOutputFormat = errors.New("unknown output format")
	errBridgeFailed        = errors.New("bridge failed")
)

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Run the bridge and print scans as they arrive",
	Long: `Find the scanner, obtain access to it and print every scanned line.

Status transitions and scans are printed until interrupted. Output formats:
  text  one scan per line; status transitions go to the log
  wire  STATUS:<STATE> / ERROR:<message> lines interleaved with scans
  json  one JSON object per event ({"event":"status"|"data", ...})

Without a permission helper, a device the current user cannot open is
watched until its permissions change (for example by a udev rule).

Example usage:
  scanbridge listen
  scanbridge listen --baud 9600 --format json
  scanbridge listen --tui
  scanbridge listen --permission-helper "pkexec setfacl -m u:$USER:rw {device}"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadListenSettings(viper.GetViper())
		if err != nil {
			return err
		}
		tui, _ := cmd.Flags().GetBool("tui")

		log := logger
		if tui && viper.GetString("log.output") == logging.OutputStderr {
			log = zerolog.Nop()
		}

		b := scanbridge.New(settings.options(log)...)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if tui {
			return runListenTUI(ctx, b, settings.BaudRate)
		}
		return runListen(ctx, b, settings, newPrinter(cmd.OutOrStdout(), settings.Format), log)
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().IntP("baud", "b", serial.DefaultBaudRate, "Baud rate")
	listenCmd.Flags().StringP("format", "o", formatText, "Output format: text, wire, json")
	listenCmd.Flags().Bool("purge", true, "Discard bytes buffered by the device before reading")
	listenCmd.Flags().Int("max-line", 0, "Drop unterminated input longer than this many bytes (0 = unbounded)")
	listenCmd.Flags().String("permission-helper", "", "Command run to grant access; {device} is replaced by the node path")
	listenCmd.Flags().Bool("exit-on-error", false, "Exit when the bridge reports ERROR, NO_DEVICE, NO_DRIVER or NO_PERMISSION")
	listenCmd.Flags().Bool("tui", false, "Show scans in an interactive terminal UI")

	viper.BindPFlag("baud", listenCmd.Flags().Lookup("baud"))
	viper.BindPFlag("format", listenCmd.Flags().Lookup("format"))
	viper.BindPFlag("purge", listenCmd.Flags().Lookup("purge"))
	viper.BindPFlag("max-line", listenCmd.Flags().Lookup("max-line"))
	viper.BindPFlag("permission.helper", listenCmd.Flags().Lookup("permission-helper"))
	viper.BindPFlag("exit-on-error", listenCmd.Flags().Lookup("exit-on-error"))
}

// listenSettings is the resolved configuration of a listen run.
type listenSettings struct {
	BaudRate         int
	Format           string
	Purge            bool
	MaxLine          int
	PermissionHelper string
	ExitOnError      bool
}

func loadListenSettings(v *viper.Viper) (listenSettings, error) {
	s := listenSettings{
		BaudRate:         v.GetInt("baud"),
		Format:           v.GetString("format"),
		Purge:            v.GetBool("purge"),
		MaxLine:          v.GetInt("max-line"),
		PermissionHelper: v.GetString("permission.helper"),
		ExitOnError:      v.GetBool("exit-on-error"),
	}

	switch s.Format {
	case "":
		s.Format = formatText
	case formatText, formatWire, formatJSON:
	default:
		return s, fmt.Errorf("%w: %q", errUnknownOutputFormat, s.Format)
	}
	if s.MaxLine < 0 {
		return s, fmt.Errorf("max-line must not be negative, got %d", s.MaxLine)
	}
	// An unsupported baud rate is left to the bridge, which reports it as ERROR.
	return s, nil
}

func (s listenSettings) options(log zerolog.Logger) []scanbridge.Option {
	return []scanbridge.Option{
		scanbridge.WithLogger(log),
		scanbridge.WithPurge(s.Purge),
		scanbridge.WithMaxLineLength(s.MaxLine),
		scanbridge.WithPermissions(scanbridge.NewAccessBroker(s.PermissionHelper, log)),
	}
}

// listenBridge is the part of *scanbridge.Bridge that listen drives.
type listenBridge interface {
	Start(baudRate int)
	Stop()
	Close() error
	Statuses() <-chan scanbridge.Status
	Lines() <-chan scanbridge.Line
}

// runListen starts the bridge and prints its events until ctx is done or,
// with ExitOnError, the bridge settles in a failure state.
func runListen(ctx context.Context, b listenBridge, s listenSettings, p *printer, log zerolog.Logger) error {
	b.Start(s.BaudRate)

	var failure error
	statuses, lines := b.Statuses(), b.Lines()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case st := <-statuses:
			if err := p.status(st, time.Now(), log); err != nil {
				failure = err
				break loop
			}
			if s.ExitOnError && isFailure(st) {
				failure = fmt.Errorf("%w: %s", errBridgeFailed, st)
				break loop
			}
		case line := <-lines:
			if err := p.line(line); err != nil {
				failure = err
				break loop
			}
		}
	}

	b.Stop()
	if err := b.Close(); err != nil && failure == nil {
		failure = err
	}

	// Print what was queued before Close, including the final STOPPED.
	for statuses != nil || lines != nil {
		select {
		case st, ok := <-statuses:
			if !ok {
				statuses = nil
				continue
			}
			p.status(st, time.Now(), log)
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			p.line(line)
		}
	}
	return failure
}

// isFailure reports whether st is a settled state other than STARTED or
// STOPPED.
func isFailure(st scanbridge.Status) bool {
	switch st.State {
	case scanbridge.StateStarted, scanbridge.StateStopped:
		return false
	}
	return st.Terminal()
}

// printer writes bridge events in one of the output formats.
type printer struct {
	w      io.Writer
	format string
	enc    *json.Encoder
}

func newPrinter(w io.Writer, format string) *printer {
	p := &printer{w: w, format: format}
	if format == formatJSON {
		p.enc = json.NewEncoder(w)
	}
	return p
}

type statusEvent struct {
	Event   string            `json:"event"`
	Status  scanbridge.Status `json:"status"`
	State   string            `json:"state"`
	Message string            `json:"message,omitempty"`
	Time    time.Time         `json:"time"`
}

type dataEvent struct {
	Event    string    `json:"event"`
	Text     string    `json:"text"`
	Received time.Time `json:"received"`
}

func (p *printer) status(st scanbridge.Status, at time.Time, log zerolog.Logger) error {
	switch p.format {
	case formatJSON:
		return p.enc.Encode(statusEvent{
			Event:   "status",
			Status:  st,
			State:   st.State.String(),
			Message: st.Message,
			Time:    at,
		})
	case formatWire:
		_, err := fmt.Fprintln(p.w, st.String())
		return err
	default:
		if st.State == scanbridge.StateError {
			log.Error().Str("error", st.Message).Msg("bridge error")
		} else {
			log.Info().Stringer("state", st.State).Msg("bridge status")
		}
		return nil
	}
}

func (p *printer) line(l scanbridge.Line) error {
	if p.format == formatJSON {
		return p.enc.Encode(dataEvent{Event: "data", Text: l.Text, Received: l.Received})
	}
	_, err := fmt.Fprintln(p.w, l.Text)
	return err
}
