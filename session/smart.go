package session

import (
	"github.com/canlab/blfview/blf"
	"github.com/canlab/blfview/decode"
)

const (
	// files up to this size are previewed in full
	smartFullLimit = 20 << 20
	// larger files are previewed from a prefix of 5% of the declared size,
	// capped here
	smartPrefixCap    = 100 << 20
	smartPreviewCount = 50
)

// PreviewResult is what a viewer shows before committing to a full load.
type PreviewResult struct {
	Frames     []decode.DecodedFrame
	FrameCount int
	Truncated  bool
}

// LoadPreviewSmart builds a quick preview from at most a bounded prefix of
// the capture. Files up to 20 MiB are read whole; beyond that the prefix is
// 5% of fileSize capped at 100 MiB. The parse tolerates the object the
// slice cuts through, so FrameCount reports every frame the prefix fully
// contains.
//
// Parameters:
//   - blfBytes: the capture, or any prefix of it at least as long as the
//     computed limit
//   - fileSize: the full on-disk size, which may exceed len(blfBytes)
//
// Returns:
//   - *PreviewResult: up to 50 decoded frames plus the prefix frame count
//   - error: header validation, DBC parse, or catalog resolution failure
func LoadPreviewSmart(blfBytes []byte, dbcTexts []string, channelMap map[uint16]int, fileSize int64) (*PreviewResult, error) {
	limit := int64(len(blfBytes))
	if fileSize > smartFullLimit {
		prefix := fileSize / 20
		if prefix > smartPrefixCap {
			prefix = smartPrefixCap
		}
		if prefix < limit {
			limit = prefix
		}
	}

	s, err := New(blfBytes[:limit], dbcTexts, channelMap)
	if err != nil {
		return nil, err
	}

	r, err := blf.NewReader(s.data)
	if err != nil {
		return nil, err
	}

	result := &PreviewResult{}
	for frame, err := range r.All() {
		if err != nil {
			return nil, err
		}
		result.FrameCount++
		if len(result.Frames) < smartPreviewCount {
			result.Frames = append(result.Frames, s.decoder.DecodeFrame(frame))
		}
	}
	result.Truncated = r.Truncated()

	return result, nil
}
