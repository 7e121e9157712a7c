package server

import (
	"sync"
	"time"

	"github.com/dashsets/docsetctl/internal/updater"
)

const defaultHistoryLimit = 50

// RunRecord is one completed update cycle as reported by the API.
type RunRecord struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Trigger    string         `json:"trigger"`
	Results    []ResultRecord `json:"results"`
}

type ResultRecord struct {
	Product string `json:"product"`
	Version string `json:"version,omitempty"`
	Archive string `json:"archive,omitempty"`
	Error   string `json:"error,omitempty"`
}

// history keeps the most recent run records, newest first.
type history struct {
	mu      sync.Mutex
	limit   int
	entries []RunRecord
}

func newHistory(limit int) *history {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &history{limit: limit}
}

func (h *history) add(record RunRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append([]RunRecord{record}, h.entries...)
	if len(h.entries) > h.limit {
		h.entries = h.entries[:h.limit]
	}
}

func (h *history) list() []RunRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]RunRecord, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *history) lastByProduct() map[string]ResultRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	last := make(map[string]ResultRecord)
	for _, run := range h.entries {
		for _, result := range run.Results {
			if _, ok := last[result.Product]; !ok {
				last[result.Product] = result
			}
		}
	}
	return last
}

func toResultRecords(results []updater.Result) []ResultRecord {
	records := make([]ResultRecord, 0, len(results))
	for _, r := range results {
		record := ResultRecord{Product: r.Product, Version: r.Version, Archive: r.ArchivePath}
		if r.Err != nil {
			record.Error = r.Err.Error()
		}
		records = append(records, record)
	}
	return records
}
