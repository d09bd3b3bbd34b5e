// Package blfview reads Vector BLF capture files and turns their CAN
// traffic into named, scaled signal series using DBC databases.
//
// The top-level functions cover the common flows; the subpackages expose
// the layers behind them:
//
//   - blf: container walking and frame extraction
//   - dbc: database parsing and multi-channel catalog resolution
//   - decode: per-frame signal extraction
//   - decimate: min/max envelope reduction for plotting
//   - session: the stateful query façade over one loaded capture
//   - stream: bounded-memory export pipelines with progress reporting
//
// A typical interactive load:
//
//	s, err := blfview.NewSession(blfBytes, dbcTexts, map[uint16]int{1: 0})
//	if err != nil {
//		return err
//	}
//	stats, err := s.Stats()
//
// and a bounded-memory export of selected signals:
//
//	csv, err := blfview.ExportCSVStream(blfBytes, dbcTexts, channelMap,
//		[]string{"CAN1.EngineSpeed"}, progress)
package blfview

import (
	"github.com/canlab/blfview/blf"
	"github.com/canlab/blfview/decimate"
	"github.com/canlab/blfview/session"
	"github.com/canlab/blfview/stream"
)

// CountFrames returns the number of CAN frames in a BLF buffer without
// decoding any signals.
func CountFrames(blfBytes []byte) (int, error) {
	return blf.CountFrames(blfBytes)
}

// NewSession creates a query session over a fully loaded capture. See
// session.New.
func NewSession(blfBytes []byte, dbcTexts []string, channelMap map[uint16]int, opts ...session.Option) (*session.Session, error) {
	return session.New(blfBytes, dbcTexts, channelMap, opts...)
}

// LoadPreviewSmart builds a bounded preview of a capture that may be far
// larger than what is worth loading eagerly. See session.LoadPreviewSmart.
func LoadPreviewSmart(blfBytes []byte, dbcTexts []string, channelMap map[uint16]int, fileSize int64) (*session.PreviewResult, error) {
	return session.LoadPreviewSmart(blfBytes, dbcTexts, channelMap, fileSize)
}

// ExportCSVStream renders selected signals as CSV with bounded memory and
// progress reporting. See stream.ExportCSVStream.
func ExportCSVStream(blfBytes []byte, dbcTexts []string, channelMap map[uint16]int, applied []string, progress stream.ProgressFunc, opts ...stream.Option) ([]byte, error) {
	return stream.ExportCSVStream(blfBytes, dbcTexts, channelMap, applied, progress, opts...)
}

// DecimatedStream produces per-signal plot envelopes with bounded memory
// and progress reporting. See stream.DecimatedStream.
func DecimatedStream(blfBytes []byte, dbcTexts []string, channelMap map[uint16]int, keep []string, maxPoints int, progress stream.ProgressFunc, opts ...stream.Option) (map[string][]decimate.Point, error) {
	return stream.DecimatedStream(blfBytes, dbcTexts, channelMap, keep, maxPoints, progress, opts...)
}
