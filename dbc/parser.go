package dbc

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/canlab/blfview/errs"
)

// ParseError reports malformed DBC text with the line it occurred on.
type ParseError struct {
	Line   int
	Reason string

	err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dbc: line %d: %s", e.Line, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.err
}

func syntaxErr(line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Reason: fmt.Sprintf(format, args...), err: errs.ErrDBCSyntax}
}

func rangeErr(line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Reason: fmt.Sprintf(format, args...), err: errs.ErrSignalOutOfRange}
}

// independentSignalsID is the pseudo-message Vector tools emit to hold
// signals not assigned to any real message. It never appears on the bus.
const independentSignalsID = 0xC0000000

// idExtendedBit marks 29-bit identifiers in the BO_ id field.
const idExtendedBit = 0x80000000

// Parse parses one DBC text into a Database.
//
// Returns:
//   - *Database: parsed message and signal definitions
//   - error: *ParseError carrying the offending line and reason; wraps
//     errs.ErrDBCSyntax or, for signals exceeding their message's declared
//     payload length, errs.ErrSignalOutOfRange
func Parse(text string) (*Database, error) {
	db := &Database{byID: make(map[uint32]*Message)}

	var cur *Message
	skipCurrent := false

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue

		case strings.HasPrefix(line, "VERSION"):
			db.Version = strings.Trim(strings.TrimSpace(strings.TrimPrefix(line, "VERSION")), `"`)

		case strings.HasPrefix(line, "BU_:"):
			db.Nodes = strings.Fields(strings.TrimPrefix(line, "BU_:"))

		case strings.HasPrefix(line, "BO_ "):
			msg, skip, err := parseMessage(line, lineNo)
			if err != nil {
				return nil, err
			}
			skipCurrent = skip
			if skip {
				cur = nil
				continue
			}
			db.Messages = append(db.Messages, msg)
			cur = &db.Messages[len(db.Messages)-1]

		case strings.HasPrefix(line, "SG_ "):
			if cur == nil {
				if skipCurrent {
					continue
				}

				return nil, syntaxErr(lineNo, "signal definition outside a message")
			}
			sig, err := parseSignal(line, lineNo)
			if err != nil {
				return nil, err
			}
			if err := validateBitRange(&sig, cur, lineNo); err != nil {
				return nil, err
			}
			if sig.MuxRole == MuxSelector {
				if cur.muxIndex >= 0 {
					return nil, syntaxErr(lineNo, "message %s has multiple multiplexor signals", cur.Name)
				}
				cur.muxIndex = len(cur.Signals)
			}
			cur.Signals = append(cur.Signals, sig)

		default:
			// CM_, BA_, VAL_, NS_, BS_ and friends carry no decode
			// information; a new section also ends the current message
			if !strings.HasPrefix(line, "SG_") {
				cur = nil
				skipCurrent = false
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, syntaxErr(lineNo, "reading input: %v", err)
	}

	for i := range db.Messages {
		db.byID[db.Messages[i].ID] = &db.Messages[i]
	}

	return db, nil
}

// parseMessage parses a "BO_ <id> <name>: <length> <sender>" line.
// skip is true for the Vector independent-signals pseudo-message.
func parseMessage(line string, lineNo int) (Message, bool, error) {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return Message{}, false, syntaxErr(lineNo, "message definition missing ':'")
	}

	head := strings.Fields(line[:colon])
	tail := strings.Fields(line[colon+1:])
	if len(head) != 3 || len(tail) != 2 {
		return Message{}, false, syntaxErr(lineNo, "malformed message definition %q", line)
	}

	rawID, err := strconv.ParseUint(head[1], 10, 32)
	if err != nil {
		return Message{}, false, syntaxErr(lineNo, "invalid message id %q", head[1])
	}
	if rawID == independentSignalsID {
		return Message{}, true, nil
	}

	length, err := strconv.Atoi(tail[0])
	if err != nil || length < 0 || length > 64 {
		return Message{}, false, syntaxErr(lineNo, "invalid message length %q", tail[0])
	}

	return Message{
		ID:       uint32(rawID) &^ idExtendedBit,
		Extended: uint32(rawID)&idExtendedBit != 0,
		Name:     head[2],
		Length:   length,
		Sender:   tail[1],
		muxIndex: -1,
	}, false, nil
}

// parseSignal parses a
// "SG_ <name> [M|m<n>] : <start>|<len>@<order><sign> (<scale>,<offset>) [<min>|<max>] "<unit>" <receivers>"
// line.
func parseSignal(line string, lineNo int) (Signal, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "SG_"))
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return Signal{}, syntaxErr(lineNo, "signal definition missing ':'")
	}

	head := strings.Fields(rest[:colon])
	if len(head) == 0 || len(head) > 2 {
		return Signal{}, syntaxErr(lineNo, "malformed signal name %q", rest[:colon])
	}

	sig := Signal{Name: head[0], Scale: 1}

	if len(head) == 2 {
		if err := parseMuxMarker(head[1], &sig); err != nil {
			return Signal{}, syntaxErr(lineNo, "invalid multiplex marker %q", head[1])
		}
	}

	spec := strings.TrimSpace(rest[colon+1:])
	fields := strings.Fields(spec)
	if len(fields) == 0 {
		return Signal{}, syntaxErr(lineNo, "signal %s missing bit specification", sig.Name)
	}

	if err := parseBitSpec(fields[0], &sig); err != nil {
		return Signal{}, syntaxErr(lineNo, "signal %s: %v", sig.Name, err)
	}
	if err := parseScaleOffset(spec, &sig); err != nil {
		return Signal{}, syntaxErr(lineNo, "signal %s: %v", sig.Name, err)
	}
	if err := parseRange(spec, &sig); err != nil {
		return Signal{}, syntaxErr(lineNo, "signal %s: %v", sig.Name, err)
	}
	parseUnit(spec, &sig)

	return sig, nil
}

// parseMuxMarker interprets "M", "m<n>" and the extended "m<n>M" form (the
// latter is treated as selected; nested multiplexing collapses to one level).
func parseMuxMarker(marker string, sig *Signal) error {
	if marker == "M" {
		sig.MuxRole = MuxSelector
		return nil
	}
	if !strings.HasPrefix(marker, "m") {
		return fmt.Errorf("unknown marker")
	}

	value := strings.TrimSuffix(marker[1:], "M")
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return err
	}
	sig.MuxRole = MuxSelected
	sig.MuxValue = n

	return nil
}

// parseBitSpec interprets "<start>|<length>@<order><sign>".
func parseBitSpec(token string, sig *Signal) error {
	pipe := strings.IndexByte(token, '|')
	at := strings.IndexByte(token, '@')
	if pipe < 0 || at < pipe || at+2 > len(token) {
		return fmt.Errorf("malformed bit specification %q", token)
	}

	start, err := strconv.Atoi(token[:pipe])
	if err != nil || start < 0 {
		return fmt.Errorf("invalid start bit %q", token[:pipe])
	}
	length, err := strconv.Atoi(token[pipe+1 : at])
	if err != nil || length < 1 || length > 64 {
		return fmt.Errorf("invalid bit length %q", token[pipe+1:at])
	}

	switch token[at+1] {
	case '1':
		sig.BigEndian = false
	case '0':
		sig.BigEndian = true
	default:
		return fmt.Errorf("invalid byte order %q", string(token[at+1]))
	}
	switch token[at+2] {
	case '+':
		sig.Signed = false
	case '-':
		sig.Signed = true
	default:
		return fmt.Errorf("invalid sign %q", string(token[at+2]))
	}

	sig.StartBit = start
	sig.Length = length

	return nil
}

// parseScaleOffset interprets the "(<scale>,<offset>)" group.
func parseScaleOffset(spec string, sig *Signal) error {
	open := strings.IndexByte(spec, '(')
	end := strings.IndexByte(spec, ')')
	if open < 0 || end < open {
		return fmt.Errorf("missing scale/offset group")
	}

	parts := strings.SplitN(spec[open+1:end], ",", 2)
	if len(parts) != 2 {
		return fmt.Errorf("malformed scale/offset group %q", spec[open:end+1])
	}

	scale, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return fmt.Errorf("invalid scale %q", parts[0])
	}
	offset, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return fmt.Errorf("invalid offset %q", parts[1])
	}

	sig.Scale = scale
	sig.Offset = offset

	return nil
}

// parseRange interprets the optional "[<min>|<max>]" group.
func parseRange(spec string, sig *Signal) error {
	open := strings.IndexByte(spec, '[')
	end := strings.IndexByte(spec, ']')
	if open < 0 || end < open {
		return nil
	}

	parts := strings.SplitN(spec[open+1:end], "|", 2)
	if len(parts) != 2 {
		return fmt.Errorf("malformed range group %q", spec[open:end+1])
	}

	minVal, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return fmt.Errorf("invalid minimum %q", parts[0])
	}
	maxVal, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return fmt.Errorf("invalid maximum %q", parts[1])
	}

	sig.Min = minVal
	sig.Max = maxVal

	return nil
}

// parseUnit extracts the quoted unit string, which may contain spaces.
func parseUnit(spec string, sig *Signal) {
	first := strings.IndexByte(spec, '"')
	if first < 0 {
		return
	}
	second := strings.IndexByte(spec[first+1:], '"')
	if second < 0 {
		return
	}
	sig.Unit = spec[first+1 : first+1+second]
}

// validateBitRange rejects signals whose bit field cannot fit the message's
// declared payload length.
func validateBitRange(sig *Signal, msg *Message, lineNo int) error {
	total := msg.Length * 8

	if !sig.BigEndian {
		if sig.StartBit+sig.Length > total {
			return rangeErr(lineNo, "signal %s: bits %d..%d exceed %d-byte message %s",
				sig.Name, sig.StartBit, sig.StartBit+sig.Length-1, msg.Length, msg.Name)
		}

		return nil
	}

	// Motorola: the start bit is the MSB; map to the descending (sawtooth)
	// bit order and check the LSB stays inside the payload.
	msbPos := (sig.StartBit/8)*8 + (7 - sig.StartBit%8)
	if sig.StartBit >= total || msbPos+sig.Length > total {
		return rangeErr(lineNo, "signal %s: big-endian field of %d bits at start bit %d exceeds %d-byte message %s",
			sig.Name, sig.Length, sig.StartBit, msg.Length, msg.Name)
	}

	return nil
}
