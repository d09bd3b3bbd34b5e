// Command blfview inspects Vector BLF capture files: statistics, signal
// listings, frame previews, and bounded-memory CSV or decimated exports.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "blfview",
	Short: "Inspect and export Vector BLF CAN captures",
	Long: `blfview reads Vector BLF capture files and, given DBC databases,
decodes CAN traffic into named, scaled signal series.

Channels are mapped to databases with --channel-map, e.g. "1=0,2=1" applies
the first --dbc file to channel 1 and the second to channel 2. Unmapped
channels stay raw.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(viper.GetString("log-level"))
		if err != nil {
			level = logrus.InfoLevel
		}
		log.SetLevel(level)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringArray("dbc", nil, "DBC database file (repeatable, order matters for --channel-map)")
	pf.String("channel-map", "", "channel to database assignments, e.g. \"1=0,2=1\"")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")

	viper.SetEnvPrefix("BLFVIEW")
	viper.AutomaticEnv()
	for _, name := range []string{"dbc", "channel-map", "log-level"} {
		if err := viper.BindPFlag(name, pf.Lookup(name)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(statsCmd, signalsCmd, previewCmd, exportCmd, decimateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// loadInputs reads the capture and databases named on the command line.
func loadInputs(args []string) (blfBytes []byte, dbcTexts []string, channelMap map[uint16]int, err error) {
	if len(args) != 1 {
		return nil, nil, nil, fmt.Errorf("expected exactly one capture file")
	}

	blfBytes, err = os.ReadFile(args[0])
	if err != nil {
		return nil, nil, nil, err
	}

	for _, path := range viper.GetStringSlice("dbc") {
		text, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, nil, err
		}
		dbcTexts = append(dbcTexts, string(text))
	}

	channelMap, err = parseChannelMap(viper.GetString("channel-map"), len(dbcTexts))
	if err != nil {
		return nil, nil, nil, err
	}

	return blfBytes, dbcTexts, channelMap, nil
}

// parseChannelMap parses "1=0,2=1" into channel assignments. An empty spec
// with exactly one database applies it to channel 1.
func parseChannelMap(spec string, databases int) (map[uint16]int, error) {
	out := make(map[uint16]int)
	if spec == "" {
		if databases == 1 {
			out[1] = 0
		}
		return out, nil
	}

	for _, pair := range strings.Split(spec, ",") {
		ch, idx, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("malformed channel mapping %q", pair)
		}
		channel, err := strconv.ParseUint(ch, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid channel in %q: %w", pair, err)
		}
		index, err := strconv.Atoi(idx)
		if err != nil {
			return nil, fmt.Errorf("invalid database index in %q: %w", pair, err)
		}
		out[uint16(channel)] = index
	}

	return out, nil
}

// writeOutput writes to --out, or stdout when unset.
func writeOutput(cmd *cobra.Command, data []byte) error {
	path, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"path": path, "bytes": len(data)}).Info("output written")

	return nil
}
