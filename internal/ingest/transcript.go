package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"horae/internal/ledger"
	"horae/internal/parser"
	"horae/internal/table"
)

// maxLine bounds one JSONL record. Long roleplay turns with embedded
// metadata run well past bufio's 64KiB default.
const maxLine = 16 << 20

// Transcript is a decoded chat export.
type Transcript struct {
	Turns []ledger.Turn
	// Tables are chat-local tables carried in the export header.
	Tables []*table.Table
}

type record struct {
	Name     *string         `json:"name"`
	IsUser   bool            `json:"is_user"`
	Mes      *string         `json:"mes"`
	SendDate json.RawMessage `json:"send_date"`
	Extra    struct {
		Meta json.RawMessage `json:"horae_meta"`
	} `json:"extra"`
	ChatMetadata *struct {
		Tables []*table.Table `json:"horae_tables"`
	} `json:"chat_metadata"`
}

// ReadTranscript decodes a JSONL chat export. Records without a message body
// are header lines; their chat_metadata may carry chat-local tables. Lines
// that fail to decode are reported and skipped.
func ReadTranscript(r io.Reader) (*Transcript, []error) {
	var (
		out  Transcript
		errs []error
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", lineNo, err))
			continue
		}
		if rec.Mes == nil {
			if rec.ChatMetadata != nil {
				if tables := slices.DeleteFunc(rec.ChatMetadata.Tables, func(t *table.Table) bool { return t == nil }); len(tables) > 0 {
					out.Tables = tables
				}
			}
			continue
		}

		turn := ledger.Turn{
			IsUser: rec.IsUser,
			Body:   *rec.Mes,
			SentAt: parseSendDate(rec.SendDate),
			Delta:  decodeMeta(rec.Extra.Meta, lineNo),
		}
		if rec.Name != nil {
			turn.Name = *rec.Name
		}
		out.Turns = append(out.Turns, turn)
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, fmt.Errorf("reading transcript: %w", err))
	}
	return &out, errs
}

// decodeMeta returns the stored delta of a record. A delta that does not
// decode is dropped so the turn body gets parsed instead.
func decodeMeta(raw json.RawMessage, lineNo int) *parser.Delta {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var delta parser.Delta
	if err := json.Unmarshal(raw, &delta); err != nil {
		log.Warn().Err(err).Int("line", lineNo).Msg("ignoring undecodable horae_meta")
		return nil
	}
	return &delta
}

var sendDateLayouts = []string{
	time.RFC3339Nano,
	"January 2, 2006 3:04pm",
	"January 2, 2006 3:04:05pm",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// parseSendDate accepts unix milliseconds as a number or string, or one of
// the common export layouts. Anything else yields the zero time.
func parseSendDate(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(n).UTC()
	}
	for _, layout := range sendDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
