package cache

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"
)

// DumpFormat identifies a translation memory dump. It is the "format" field
// of the header line.
const DumpFormat = "pagetl-tm"

const dumpVersion = 1

// maxDumpLine bounds a single JSON line; translated paragraphs can be long.
const maxDumpLine = 4 << 20

// ErrBadDump is returned by Load when the input does not start with a dump
// header or the header names an unknown version.
var ErrBadDump = errors.New("not a translation memory dump")

// DumpHeader is the first line of a dump.
type DumpHeader struct {
	Format  string            `json:"format"`
	Version int               `json:"version"`
	Created time.Time         `json:"created"`
	Meta    map[string]string `json:"meta,omitempty"`
}

type dumpEntry struct {
	Key   string `json:"k"`
	Value string `json:"v"`
}

// Dump writes the live entries of c to w as JSON lines, one entry per line
// after a DumpHeader, in key order. It returns the number of entries written.
// c must be Enumerable.
func Dump(w io.Writer, c TranslationCache, meta map[string]string) (int, error) {
	e, ok := c.(Enumerable)
	if !ok {
		return 0, fmt.Errorf("cache type %T: %w", c, ErrUnsupported)
	}
	entries, err := e.Entries()
	if err != nil {
		return 0, fmt.Errorf("listing entries: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	header := DumpHeader{Format: DumpFormat, Version: dumpVersion, Created: time.Now().UTC(), Meta: meta}
	if err := enc.Encode(header); err != nil {
		return 0, err
	}
	for _, k := range keys {
		if err := enc.Encode(dumpEntry{Key: k, Value: entries[k]}); err != nil {
			return 0, err
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// LoadStats reports the outcome of Load.
type LoadStats struct {
	Header  DumpHeader
	Loaded  int
	Skipped int // malformed lines and entries with an empty key or value
	Failed  int // entries the cache refused
}

// Load reads a dump written by Dump into c. Broken entry lines are skipped
// rather than aborting the load; a missing or foreign header is an error.
func Load(r io.Reader, c TranslationCache) (LoadStats, error) {
	var stats LoadStats

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxDumpLine)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return stats, err
		}
		return stats, ErrBadDump
	}
	if err := json.Unmarshal(sc.Bytes(), &stats.Header); err != nil || stats.Header.Format != DumpFormat {
		return stats, ErrBadDump
	}
	if stats.Header.Version != dumpVersion {
		return stats, fmt.Errorf("%w: version %d", ErrBadDump, stats.Header.Version)
	}

	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e dumpEntry
		if err := json.Unmarshal(line, &e); err != nil || e.Key == "" || e.Value == "" {
			stats.Skipped++
			continue
		}
		if err := c.Set(e.Key, e.Value); err != nil {
			stats.Failed++
			continue
		}
		stats.Loaded++
	}
	return stats, sc.Err()
}
