// internal/events/journal.go
//
// Append-only event journal: one zstd-compressed JSONL file per room,
// <dir>/<room>.jsonl.zst. Each Open appends a new zstd frame, so a file
// reopened after a restart of the process is still one readable stream.
//
// Write failures are logged and swallowed; losing the journal never stops play.

package events

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// Journal is a Sink that persists events.
type Journal struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// JournalPath returns the file a room's journal is written to.
func JournalPath(dir, room string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.jsonl.zst", room))
}

// OpenJournal creates dir if needed and opens the room's journal for append.
func OpenJournal(dir, room string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal dir: %w", err)
	}
	path := JournalPath(dir, room)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	return &Journal{path: path, f: f, enc: enc, w: bufio.NewWriterSize(enc, 32*1024)}, nil
}

func (j *Journal) Path() string { return j.path }

// Publish implements Sink.
func (j *Journal) Publish(e Event) {
	if err := j.Write(e); err != nil {
		log.Warn().Err(err).Str("journal", j.path).Uint64("seq", e.Seq).Msg("journal write")
	}
}

// Write appends one event and flushes it through the compressor.
func (j *Journal) Write(e Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.w == nil {
		return errors.New("journal closed")
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := j.w.Write(b); err != nil {
		return err
	}
	if err := j.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := j.w.Flush(); err != nil {
		return err
	}
	return j.enc.Flush()
}

// Close finishes the zstd frame and closes the file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.w == nil {
		return nil
	}
	var errs []error
	errs = append(errs, j.w.Flush())
	errs = append(errs, j.enc.Close())
	errs = append(errs, j.f.Close())
	j.w, j.enc, j.f = nil, nil, nil
	return errors.Join(errs...)
}

// ReadJournal decodes every record from a journal stream.
func ReadJournal(r io.Reader) ([]Record, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var out []Record
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return out, fmt.Errorf("record %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
	}
	return out, sc.Err()
}

// ReadJournalFile is ReadJournal over a file path.
func ReadJournalFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJournal(f)
}
