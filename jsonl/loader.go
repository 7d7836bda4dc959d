package jsonl

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fwojciec/csvstory"
)

// maxLineSize is the maximum size for a single JSONL line (1MB).
const maxLineSize = 1024 * 1024

// Load reads every Event from a journal file. A missing file yields no
// events and no error.
func Load(path string) ([]csvstory.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var events []csvstory.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var ev csvstory.Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		events = append(events, ev)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
