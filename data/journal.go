package data

import (
	"bufio"
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

// Entry is one line of the journal
type Entry struct {
	Timestamp time.Time       `json:"ts"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Journal is an append-only JSON lines record of what happened in a game.
// It is never read back into the game; the key-value store is the state.
type Journal struct {
	mu   sync.Mutex
	file *os.File
}

// OpenJournal opens or creates the journal file for appending
func OpenJournal(filename string) (*Journal, error) {
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &Journal{file: f}, nil
}

// Log appends an entry. A nil journal drops it.
func (j *Journal) Log(entryType string, data interface{}) {
	if j == nil || j.file == nil {
		return
	}

	entry := Entry{
		Timestamp: time.Now(),
		Type:      entryType,
	}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			log.Printf("[journal] Encode %s error: %v", entryType, err)
			return
		}
		entry.Data = b
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.file.Write(append(b, '\n'))
}

func (j *Journal) Close() error {
	if j == nil || j.file == nil {
		return nil
	}
	return j.file.Close()
}

// ReadJournal returns the entries logged since the given time.
// A missing file has no entries.
func ReadJournal(filename string, since time.Time) ([]Entry, error) {
	f, err := os.Open(filename)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)

	// snapshots of a busy area can exceed the default line limit
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		if entry.Timestamp.Before(since) {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}
