package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"daybell/internal/models"
)

// snapshotVersion is the format written by Encode. Version 0 is the
// legacy format: a bare JSON array of lists with no version field and no
// repeat field on tasks.
const snapshotVersion = 1

// Decode parses a snapshot blob, accepting both the legacy array form
// (version 0) and the current object form. Legacy tasks carry no repeat
// field and decode as daily, matching the timetable behavior the format
// was written by.
func Decode(blob []byte) (*models.Snapshot, error) {
	trimmed := bytes.TrimLeft(blob, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty snapshot blob")
	}

	if trimmed[0] == '[' {
		var lists []models.TaskList
		if err := json.Unmarshal(trimmed, &lists); err != nil {
			return nil, fmt.Errorf("failed to decode legacy snapshot: %w", err)
		}
		for i := range lists {
			for j := range lists[i].Tasks {
				lists[i].Tasks[j].Repeat = models.RepeatDaily
			}
		}
		return &models.Snapshot{Version: 0, Lists: lists}, nil
	}

	var snap models.Snapshot
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

// Encode serializes a snapshot in the current format.
func Encode(snap *models.Snapshot) ([]byte, error) {
	out := *snap
	out.Version = snapshotVersion
	blob, err := json.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return blob, nil
}
