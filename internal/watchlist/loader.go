// Package watchlist supplies read-only watchlist snapshots from external
// screening data sources. The core only enumerates entries, never writes.
package watchlist

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/veridian-labs/veridian/internal/model"
)

// FileSource loads watchlist entries from a local YAML, JSON or CSV file.
type FileSource struct {
	Path string
}

// NewFileSource creates a source for the given path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Name identifies the source in logs and the storage cache.
func (s *FileSource) Name() string {
	return "file:" + filepath.Base(s.Path)
}

// Load reads and parses the watchlist file. The format is chosen by file
// extension.
func (s *FileSource) Load(_ context.Context) ([]model.WatchlistEntry, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".yaml", ".yml":
		return parseYAML(data)
	case ".json":
		return parseJSON(data)
	case ".csv":
		return parseCSV(data)
	default:
		return nil, fmt.Errorf("unsupported watchlist format %q", filepath.Ext(s.Path))
	}
}

func parseYAML(data []byte) ([]model.WatchlistEntry, error) {
	var doc struct {
		Entries []model.WatchlistEntry `yaml:"entries"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse watchlist YAML: %w", err)
	}
	return doc.Entries, nil
}

func parseJSON(data []byte) ([]model.WatchlistEntry, error) {
	var entries []model.WatchlistEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse watchlist JSON: %w", err)
	}
	return entries, nil
}

// parseCSV expects a header row with at least id and name columns. Aliases
// are semicolon-separated within their cell.
func parseCSV(data []byte) ([]model.WatchlistEntry, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse watchlist CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["id"]; !ok {
		return nil, fmt.Errorf("watchlist CSV missing %q column", "id")
	}
	if _, ok := cols["name"]; !ok {
		return nil, fmt.Errorf("watchlist CSV missing %q column", "name")
	}

	cell := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	entries := make([]model.WatchlistEntry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		entry := model.WatchlistEntry{
			ID:          cell(row, "id"),
			Name:        cell(row, "name"),
			Nationality: cell(row, "nationality"),
			Category:    cell(row, "category"),
			Source:      cell(row, "source"),
		}
		if aliases := cell(row, "aliases"); aliases != "" {
			for _, alias := range strings.Split(aliases, ";") {
				if trimmed := strings.TrimSpace(alias); trimmed != "" {
					entry.Aliases = append(entry.Aliases, trimmed)
				}
			}
		}
		if priority := cell(row, "source_priority"); priority != "" {
			p, err := strconv.Atoi(priority)
			if err != nil {
				return nil, fmt.Errorf("invalid source_priority for %q: %w", entry.ID, err)
			}
			entry.SourcePriority = p
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
