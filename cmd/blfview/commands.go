package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/canlab/blfview/session"
	"github.com/canlab/blfview/stream"
)

func openSession(args []string) (*session.Session, error) {
	blfBytes, dbcTexts, channelMap, err := loadInputs(args)
	if err != nil {
		return nil, err
	}

	return session.New(blfBytes, dbcTexts, channelMap)
}

var statsCmd = &cobra.Command{
	Use:   "stats <capture.blf>",
	Short: "Print capture statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(args)
		if err != nil {
			return err
		}
		stats, err := s.Stats()
		if err != nil {
			return err
		}

		fmt.Printf("frames:    %d\n", stats.FrameCount)
		fmt.Printf("duration:  %.3fs (%.9f .. %.9f)\n",
			stats.Duration(), float64(stats.StartNs)/1e9, float64(stats.EndNs)/1e9)
		fmt.Printf("signals:   %d\n", stats.SignalCount)
		if stats.Truncated {
			fmt.Println("truncated: yes")
		}
		for _, ch := range stats.Channels {
			fmt.Printf("  CAN%-3d %d frames\n", ch, stats.ChannelCounts[ch])
		}
		for _, c := range s.Catalog().Conflicts {
			log.WithFields(logrus.Fields{
				"channel": c.Channel, "id": fmt.Sprintf("0x%X", c.ID),
				"previous": c.Previous, "winner": c.Winner,
			}).Warn("duplicate message id, later database wins")
		}

		return nil
	},
}

var signalsCmd = &cobra.Command{
	Use:   "signals <capture.blf>",
	Short: "List decodable signal names",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(args)
		if err != nil {
			return err
		}
		for _, name := range s.Signals() {
			fmt.Println(name)
		}

		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <capture.blf>",
	Short: "Show the first frames of a capture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, err := cmd.Flags().GetInt("count")
		if err != nil {
			return err
		}

		blfBytes, dbcTexts, channelMap, err := loadInputs(args)
		if err != nil {
			return err
		}
		info, err := os.Stat(args[0])
		if err != nil {
			return err
		}

		result, err := session.LoadPreviewSmart(blfBytes, dbcTexts, channelMap, info.Size())
		if err != nil {
			return err
		}

		if len(result.Frames) > count {
			result.Frames = result.Frames[:count]
		}
		for _, df := range result.Frames {
			f := df.Frame
			line := fmt.Sprintf("%14.6f CAN%d 0x%X [%d]", f.TimestampSeconds(), f.Channel, f.ID, len(f.Data))
			if df.Name != "" {
				parts := make([]string, 0, len(df.Samples))
				for _, sample := range df.Samples {
					parts = append(parts, fmt.Sprintf("%s=%g%s", sample.Signal, sample.Value, sample.Unit))
				}
				line += "  " + df.Name + ": " + strings.Join(parts, " ")
			}
			fmt.Println(line)
		}
		log.WithField("frames", result.FrameCount).Info("preview scan complete")

		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <capture.blf>",
	Short: "Export selected signals as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signals, err := cmd.Flags().GetStringSlice("signal")
		if err != nil {
			return err
		}
		chunkSize, err := cmd.Flags().GetInt("chunk-size")
		if err != nil {
			return err
		}

		blfBytes, dbcTexts, channelMap, err := loadInputs(args)
		if err != nil {
			return err
		}

		out, err := stream.ExportCSVStream(blfBytes, dbcTexts, channelMap, signals,
			interruptibleProgress(), stream.WithChunkSize(chunkSize))
		if err != nil {
			return err
		}

		return writeOutput(cmd, out)
	},
}

var decimateCmd = &cobra.Command{
	Use:   "decimate <capture.blf>",
	Short: "Export decimated plot envelopes as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		signals, err := cmd.Flags().GetStringSlice("signal")
		if err != nil {
			return err
		}
		maxPoints, err := cmd.Flags().GetInt("max-points")
		if err != nil {
			return err
		}
		chunkSize, err := cmd.Flags().GetInt("chunk-size")
		if err != nil {
			return err
		}

		blfBytes, dbcTexts, channelMap, err := loadInputs(args)
		if err != nil {
			return err
		}

		series, err := stream.DecimatedStream(blfBytes, dbcTexts, channelMap, signals, maxPoints,
			interruptibleProgress(), stream.WithChunkSize(chunkSize))
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(series, "", "  ")
		if err != nil {
			return err
		}

		return writeOutput(cmd, append(out, '\n'))
	},
}

func init() {
	previewCmd.Flags().Int("count", 20, "frames to show")

	for _, cmd := range []*cobra.Command{exportCmd, decimateCmd} {
		cmd.Flags().StringSlice("signal", nil, "signal selection, channel-tagged (e.g. CAN1.EngineSpeed)")
		cmd.Flags().Int("chunk-size", stream.DefaultChunkSize, "frames per progress step")
		cmd.Flags().String("out", "", "output file (stdout when unset)")
	}
	decimateCmd.Flags().Int("max-points", 2000, "output points per signal")
}

// interruptibleProgress logs progress and cancels the pipeline on the first
// interrupt signal.
func interruptibleProgress() stream.ProgressFunc {
	var interrupted atomic.Bool
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	go func() {
		<-ch
		interrupted.Store(true)
		signal.Stop(ch)
	}()

	return func(processed, total int) stream.Decision {
		if interrupted.Load() {
			log.Warn("interrupted, discarding partial output")
			return stream.Cancel
		}
		log.WithFields(logrus.Fields{"processed": processed, "total": total}).Debug("decoding")

		return stream.Continue
	}
}
