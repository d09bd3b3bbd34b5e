package dbc

import (
	"fmt"
	"slices"
	"sort"

	"github.com/canlab/blfview/errs"
	"github.com/canlab/blfview/internal/collision"
	"github.com/canlab/blfview/internal/hash"
)

// SignalBinding is a signal resolved onto a concrete channel. Name carries
// the channel tag ("CAN1.EngineSpeed") so the same DBC applied to two
// channels yields distinct series.
type SignalBinding struct {
	Name   string
	ID     uint64
	Unit   string
	Signal *Signal
}

// MessageBinding ties a message definition to the channel it decodes on.
type MessageBinding struct {
	Channel uint16
	Message *Message
	Signals []SignalBinding
}

// Conflict records two messages claiming the same frame ID on one channel.
// The later database wins; the record is kept so callers can surface it.
type Conflict struct {
	Channel  uint16
	ID       uint32
	Previous string
	Winner   string
}

// Catalog maps (channel, frame ID) pairs to message bindings. It is built
// once per session and read concurrently by decoders.
type Catalog struct {
	Conflicts []Conflict

	bindings map[uint16]map[uint32]*MessageBinding
	names    []string
	ids      map[string]uint64
}

// BuildCatalog resolves databases onto channels. channelMap assigns each
// hardware channel an index into dbs; a negative index leaves the channel
// raw (frames pass through undecoded).
//
// Parameters:
//   - dbs: parsed databases, one per logical bus description
//   - channelMap: hardware channel number to dbs index
//
// Returns:
//   - *Catalog: channel-resolved signal bindings
//   - error: errs.ErrUnresolvedChannel for an index past len(dbs), or
//     errs.ErrHashCollision if two distinct tagged names hash identically
func BuildCatalog(dbs []*Database, channelMap map[uint16]int) (*Catalog, error) {
	cat := &Catalog{
		bindings: make(map[uint16]map[uint32]*MessageBinding),
		ids:      make(map[string]uint64),
	}
	tracker := collision.NewTracker()

	channels := make([]uint16, 0, len(channelMap))
	for ch := range channelMap {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })

	for _, ch := range channels {
		idx := channelMap[ch]
		if idx < 0 {
			continue
		}
		if idx >= len(dbs) {
			return nil, fmt.Errorf("channel %d references database %d of %d: %w",
				ch, idx, len(dbs), errs.ErrUnresolvedChannel)
		}

		byID := make(map[uint32]*MessageBinding)
		cat.bindings[ch] = byID

		for i := range dbs[idx].Messages {
			msg := &dbs[idx].Messages[i]
			if prev, ok := byID[msg.ID]; ok {
				cat.Conflicts = append(cat.Conflicts, Conflict{
					Channel:  ch,
					ID:       msg.ID,
					Previous: prev.Message.Name,
					Winner:   msg.Name,
				})
			}

			mb := &MessageBinding{
				Channel: ch,
				Message: msg,
				Signals: make([]SignalBinding, 0, len(msg.Signals)),
			}
			for j := range msg.Signals {
				sig := &msg.Signals[j]
				name := fmt.Sprintf("CAN%d.%s", ch, sig.Name)
				id := hash.ID(name)
				if err := tracker.Track(name, id); err != nil {
					return nil, err
				}
				cat.ids[name] = id
				mb.Signals = append(mb.Signals, SignalBinding{
					Name:   name,
					ID:     id,
					Unit:   sig.Unit,
					Signal: sig,
				})
			}
			byID[msg.ID] = mb
		}
	}

	for _, byID := range cat.bindings {
		for _, mb := range byID {
			for i := range mb.Signals {
				cat.names = append(cat.names, mb.Signals[i].Name)
			}
		}
	}
	sort.Strings(cat.names)
	cat.names = slices.Compact(cat.names)

	return cat, nil
}

// Lookup returns the binding for a frame ID on a channel, or nil when the
// channel is raw or the ID is not defined.
func (c *Catalog) Lookup(channel uint16, id uint32) *MessageBinding {
	byID, ok := c.bindings[channel]
	if !ok {
		return nil
	}

	return byID[id]
}

// SignalNames returns all bound signal names in sorted order. The returned
// slice is shared; callers must not mutate it.
func (c *Catalog) SignalNames() []string {
	return c.names
}

// SignalID resolves a channel-tagged name to its 64-bit ID, the key the
// cache and accumulator layers use for this signal's samples.
func (c *Catalog) SignalID(name string) (uint64, bool) {
	id, ok := c.ids[name]
	return id, ok
}

// Select validates a signal selection against the bound names and
// deduplicates it, preserving the caller's order.
//
// Returns:
//   - []string: the validated column order
//   - error: errs.ErrEmptySelection when applied is empty, or an error
//     naming the first unknown signal
func (c *Catalog) Select(applied []string) ([]string, error) {
	if len(applied) == 0 {
		return nil, errs.ErrEmptySelection
	}

	known := make(map[string]struct{}, len(c.names))
	for _, name := range c.names {
		known[name] = struct{}{}
	}

	columns := make([]string, 0, len(applied))
	seen := make(map[string]struct{}, len(applied))
	for _, name := range applied {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("unknown signal %q", name)
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		columns = append(columns, name)
	}

	return columns, nil
}

// Channels returns the channels that have a database bound, sorted.
func (c *Catalog) Channels() []uint16 {
	chs := make([]uint16, 0, len(c.bindings))
	for ch := range c.bindings {
		chs = append(chs, ch)
	}
	sort.Slice(chs, func(i, j int) bool { return chs[i] < chs[j] })

	return chs
}
