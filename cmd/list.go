/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/allbin/scanbridge"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List candidate scanner devices",
	Long: `List the USB devices scanbridge would consider when starting.

Devices with a bound serial driver (ttyUSB*, ttyACM*) are listed first. Raw
USB peripherals without a serial driver are listed only when no serial
device is present, since those can only be checked for permission.

The device listen would pick is marked with *, and access shows whether the
current user can already read and write its node.`,
	Run: func(cmd *cobra.Command, args []string) {
		tableFormat, _ := cmd.Flags().GetBool("table")
		showAll, _ := cmd.Flags().GetBool("all")

		enum := scanbridge.SystemEnumerator{}
		serialDevices, err := enum.SerialDevices()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing serial devices: %v\n", err)
			os.Exit(1)
		}

		var usbDevices []scanbridge.Device
		if len(serialDevices) == 0 || showAll {
			usbDevices, err = enum.USBDevices()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error listing USB devices: %v\n", err)
				os.Exit(1)
			}
		}

		rows := candidateRows(serialDevices, usbDevices, scanbridge.NewAccessBroker("", logger))
		if len(rows) == 0 {
			fmt.Println("No USB devices found")
			return
		}

		if tableFormat {
			renderTable(os.Stdout, rows)
		} else {
			renderSimple(os.Stdout, rows)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
	listCmd.Flags().BoolP("all", "a", false, "Also list raw USB devices when a serial device is present")
}

// candidateRow is one listed device.
type candidateRow struct {
	device   scanbridge.Device
	kind     string
	selected bool
	access   bool
}

type accessChecker interface {
	Has(dev scanbridge.Device) bool
}

// candidateRows lists serial devices then raw USB devices, marking the one
// Start would select.
func candidateRows(serialDevices, usbDevices []scanbridge.Device, access accessChecker) []candidateRow {
	_, raw, ok := scanbridge.SelectDevice(serialDevices, usbDevices)

	rows := make([]candidateRow, 0, len(serialDevices)+len(usbDevices))
	for i, d := range serialDevices {
		rows = append(rows, candidateRow{
			device:   d,
			kind:     portKind(d.AccessPath()),
			selected: ok && !raw && i == 0,
			access:   access.Has(d),
		})
	}
	for i, d := range usbDevices {
		rows = append(rows, candidateRow{
			device:   d,
			kind:     "USB (no driver)",
			selected: ok && raw && i == 0,
			access:   access.Has(d),
		})
	}
	return rows
}

// renderTable renders the device list in a styled static table format
func renderTable(w io.Writer, rows []candidateRow) {
	fmt.Fprintf(w, "Found %d device(s):\n\n", len(rows))

	const (
		markWidth   = 1
		pathWidth   = 22
		typeWidth   = 16
		idWidth     = 10
		accessWidth = 7
	)

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("240")).
		PaddingBottom(1)

	cellStyle := lipgloss.NewStyle().
		PaddingRight(2)

	selectedStyle := cellStyle.
		Bold(true).
		Foreground(lipgloss.Color("42"))

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s %-*s %s",
		markWidth, " ",
		pathWidth, "Path",
		typeWidth, "Type",
		idWidth, "ID",
		accessWidth, "Access",
		"Product")
	fmt.Fprintln(w, headerStyle.Render(header))

	for _, r := range rows {
		mark := " "
		style := cellStyle
		if r.selected {
			mark = "*"
			style = selectedStyle
		}
		row := fmt.Sprintf("%-*s %-*s %-*s %-*s %-*s %s",
			markWidth, mark,
			pathWidth, r.device.AccessPath(),
			typeWidth, r.kind,
			idWidth, usbID(r.device),
			accessWidth, accessLabel(r.access),
			r.device.Product)
		fmt.Fprintln(w, style.Render(row))
	}
}

// renderSimple renders one device per line
func renderSimple(w io.Writer, rows []candidateRow) {
	for _, r := range rows {
		mark := " "
		if r.selected {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %s\t%s\t%s\n", mark, r.device.AccessPath(), usbID(r.device), accessLabel(r.access))
	}
}

func usbID(d scanbridge.Device) string {
	if d.VendorID == "" && d.ProductID == "" {
		return "-"
	}
	return d.VendorID + ":" + d.ProductID
}

func accessLabel(ok bool) string {
	if ok {
		return "rw"
	}
	return "denied"
}

// portKind returns a type classification for a serial node
func portKind(path string) string {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasPrefix(name, "ttyusb"):
		return "USB Serial"
	case strings.HasPrefix(name, "ttyacm"):
		return "USB CDC/ACM"
	default:
		return "Serial Port"
	}
}
