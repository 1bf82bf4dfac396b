// Package yamlfile stores the rule collection as a single YAML document.
package yamlfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/rulebook/internal/log"
	"github.com/zjrosen/rulebook/internal/store"
)

// FormatVersion is written to every file and checked on load.
const FormatVersion = 1

type document struct {
	Version int        `yaml:"version"`
	Rules   []ruleNode `yaml:"rules"`
}

type ruleNode struct {
	GUID     string        `yaml:"guid"`
	Name     string        `yaml:"name"`
	Provider *providerNode `yaml:"provider,omitempty"`
	Groups   []string      `yaml:"groups,omitempty"`
}

type providerNode struct {
	Type   string         `yaml:"type"`
	Params map[string]any `yaml:"params,omitempty"`
}

// Store is a store.Store backed by one YAML file. Writes go to a temp file
// that is renamed over the target.
type Store struct {
	mu   sync.Mutex
	path string
}

var _ store.Store = (*Store)(nil)

// New returns a store for path. The file is created on first Save.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the file path.
func (s *Store) Path() string {
	return s.path
}

// Load implements store.Store. A missing file is an empty collection.
func (s *Store) Load(ctx context.Context) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	if doc.Version > FormatVersion {
		return nil, fmt.Errorf("%s has format version %d, newest supported is %d", s.path, doc.Version, FormatVersion)
	}

	records := make([]store.Record, 0, len(doc.Rules))
	for i, n := range doc.Rules {
		rec := store.Record{GUID: n.GUID, Name: n.Name, Position: i, Groups: n.Groups}
		if n.Provider != nil {
			rec.ProviderType = n.Provider.Type
			if len(n.Provider.Params) > 0 {
				params, err := json.Marshal(n.Provider.Params)
				if err != nil {
					return nil, fmt.Errorf("encoding params of rule %s: %w", n.GUID, err)
				}
				rec.ProviderParams = params
			}
		}
		records = append(records, rec)
	}
	log.Debug(log.CatStore, "Loaded yaml rules", "path", s.path, "count", len(records))
	return records, nil
}

// Save implements store.Store.
func (s *Store) Save(ctx context.Context, records []store.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := document{Version: FormatVersion, Rules: make([]ruleNode, 0, len(records))}
	for _, rec := range records {
		n := ruleNode{GUID: rec.GUID, Name: rec.Name, Groups: rec.Groups}
		if rec.ProviderType != "" {
			n.Provider = &providerNode{Type: rec.ProviderType}
			if len(rec.ProviderParams) > 0 {
				if err := json.Unmarshal(rec.ProviderParams, &n.Provider.Params); err != nil {
					return fmt.Errorf("decoding params of rule %s: %w", rec.GUID, err)
				}
			}
		}
		doc.Rules = append(doc.Rules, n)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling rules: %w", err)
	}
	_ = encoder.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeAtomic(s.path, buf.Bytes()); err != nil {
		return err
	}
	log.Debug(log.CatStore, "Saved yaml rules", "path", s.path, "count", len(records))
	return nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating rules directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".rules.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
