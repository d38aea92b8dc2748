// Package cmd implements the netradar command line using cobra.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"netradar/internal/capture"
	"netradar/internal/config"
	"netradar/internal/scheduler"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "netradar",
	Short: "Real-time terminal packet dashboard",
	Long: `netradar captures packets from a network interface (or replays a pcap file),
classifies them as TCP, UDP, HTTP, DNS or OTHER and shows a live dashboard:
recent packets, per-protocol counters and throughput.

Examples:
  netradar -i eth0                          # live capture on eth0
  netradar -i eth0 -f "port 53"             # only DNS traffic
  netradar --backend file -r trace.pcap     # replay a capture file
  netradar -c netradar.yaml                 # settings from a config file`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDashboard,
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		exitWithError(err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (YAML)")

	f := rootCmd.Flags()
	f.String("backend", config.BackendPcap, "capture backend: pcap, file or tshark")
	f.StringP("interface", "i", "", "network interface to capture from (e.g. eth0, wlan0)")
	f.StringP("filter", "f", "", "BPF capture filter expression")
	f.StringP("file", "r", "", "pcap file to replay (file backend)")
	f.Int("snaplen", 65536, "bytes captured per packet")
	f.Bool("promisc", true, "put the interface in promiscuous mode")
	f.Bool("realtime", false, "replay at the recorded pace (file backend)")
	f.Duration("tick", scheduler.DefaultTickInterval, "dashboard refresh interval")
	f.Int("queue-capacity", 4096, "pending packets kept between refreshes before the oldest are dropped")
	f.Int("history", 1000, "packets kept in history")
	f.Int("window", 15, "packets shown in the list")
	f.String("metrics-listen", "", "serve Prometheus metrics on this address (e.g. :9100)")
	f.String("geoip-db", "", "MaxMind country database used when inspecting packets")
	f.String("report-dir", "", "write an HTML session report into this directory on exit")
	f.String("log-level", "info", "log level: trace, debug, info, warn, error")
	f.String("log-file", "", "log file (logging is off when empty)")

	rootCmd.AddCommand(interfacesCmd)
}

// exitWithError prints the error with a hint where one helps, and exits with code 1.
func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	switch {
	case errors.Is(err, capture.ErrPermission):
		fmt.Fprintln(os.Stderr, "Capturing needs elevated privileges: run as root or grant CAP_NET_RAW.")
	case errors.Is(err, capture.ErrInterfaceNotFound):
		fmt.Fprintln(os.Stderr, "Run 'netradar interfaces' to list capture devices.")
	case errors.Is(err, capture.ErrBackendUnavailable):
		fmt.Fprintln(os.Stderr, "Install the backend or choose another with --backend.")
	}
	os.Exit(1)
}
