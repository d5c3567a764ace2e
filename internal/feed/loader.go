// Package feed loads seismic event records from offline feed dumps.
//
// The supported format is JSON lines, one event object per line, with
// the upstream wire field names. Records without an id get a generated
// UUID; records that fail validation are skipped with a warning.
package feed

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/quakelens/quakelens/internal/event"
	"github.com/quakelens/quakelens/internal/logging"
)

// maxLineBytes bounds a single JSON line. Feed records are small; one
// megabyte leaves generous headroom.
const maxLineBytes = 1 << 20

// LoadFile reads all events from a JSON-lines file.
func LoadFile(path string) ([]event.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	log := logging.Component("feed")

	var events []event.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	skipped := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var ev event.Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			log.Warn("skipping malformed record", "line", lineNo, "error", err)
			skipped++
			continue
		}
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		if err := event.Validate(&ev); err != nil {
			log.Warn("skipping invalid record", "line", lineNo, "id", ev.ID, "error", err)
			skipped++
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read events file: %w", err)
	}

	log.Info("loaded events", "path", path, "events", len(events), "skipped", skipped)
	return events, nil
}
