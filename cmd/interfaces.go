package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"netradar/internal/capture/live"
)

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List capture interfaces",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ifaces, err := live.Interfaces()
		if err != nil {
			return err
		}
		return writeInterfaces(cmd.OutOrStdout(), ifaces)
	},
}

func writeInterfaces(w io.Writer, ifaces []live.Interface) error {
	if len(ifaces) == 0 {
		_, err := fmt.Fprintln(w, "No capture interfaces found.")
		return err
	}

	rows := make([][]string, len(ifaces))
	for i, iface := range ifaces {
		desc := iface.Description
		if desc == "" {
			desc = "-"
		}
		addrs := strings.Join(iface.Addresses, ", ")
		if addrs == "" {
			addrs = "-"
		}
		rows[i] = []string{iface.Name, addrs, desc}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("INTERFACE", "ADDRESSES", "DESCRIPTION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}
			return s
		})

	_, err := fmt.Fprintln(w, t.String())
	return err
}
