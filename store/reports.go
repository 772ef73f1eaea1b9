package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"copymatch/highlight"
	"copymatch/types"

	"github.com/andybalholm/brotli"
	"github.com/huichen/murmur"
)

const (
	reportPrefix = "report/"
	indexPrefix  = "index/"
)

// Reports caches comparison reports by ID and by the content they were built
// from. Values are brotli-compressed JSON.
type Reports struct {
	db Storage
}

// NewReports wraps a storage
func NewReports(db Storage) *Reports {
	return &Reports{db: db}
}

// ContentKey identifies a comparison by its inputs. Two murmur3 hashes plus
// the lengths keep collisions unlikely; Lookup re-checks the full texts anyway.
func ContentKey(textA, textB, engine string, cfg highlight.Config) string {
	settings := fmt.Sprintf("%s|%+v", engine, cfg)
	return fmt.Sprintf("%08x%08x-%d-%d-%08x",
		murmur.Murmur3([]byte(textA)), murmur.Murmur3([]byte(textB)),
		len(textA), len(textB), murmur.Murmur3([]byte(settings)))
}

// Put stores r under its ID and indexes it by contentKey (skipped when empty)
func (s *Reports) Put(r *types.Report, contentKey string) error {
	data, err := encodeReport(r)
	if err != nil {
		return err
	}
	if err := s.db.Set([]byte(reportPrefix+r.ID), data); err != nil {
		return fmt.Errorf("failed to store report %s: %w", r.ID, err)
	}
	if contentKey == "" {
		return nil
	}
	if err := s.db.Set([]byte(indexPrefix+contentKey), []byte(r.ID)); err != nil {
		return fmt.Errorf("failed to index report %s: %w", r.ID, err)
	}
	return nil
}

// Get returns the report with the given ID or ErrNotFound
func (s *Reports) Get(id string) (*types.Report, error) {
	data, err := s.db.Get([]byte(reportPrefix + id))
	if err != nil {
		return nil, err
	}
	return decodeReport(data)
}

// Lookup returns a cached report for the same texts, or ErrNotFound
func (s *Reports) Lookup(contentKey, textA, textB string) (*types.Report, error) {
	id, err := s.db.Get([]byte(indexPrefix + contentKey))
	if err != nil {
		return nil, err
	}
	r, err := s.Get(string(id))
	if err != nil {
		return nil, err
	}
	if r.SourceFullText != textA || r.TargetFullText != textB {
		return nil, ErrNotFound
	}
	return r, nil
}

// Delete removes a report. Index entries pointing at it are left to fail Lookup.
func (s *Reports) Delete(id string) error {
	return s.db.Delete([]byte(reportPrefix + id))
}

// IDs lists the stored report IDs
func (s *Reports) IDs() ([]string, error) {
	var ids []string
	err := s.db.ForEach(func(k, _ []byte) error {
		if key := string(k); strings.HasPrefix(key, reportPrefix) {
			ids = append(ids, strings.TrimPrefix(key, reportPrefix))
		}
		return nil
	})
	return ids, err
}

// Close closes the underlying storage
func (s *Reports) Close() error {
	return s.db.Close()
}

func encodeReport(r *types.Report) ([]byte, error) {
	jsonData, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	var buf bytes.Buffer
	bw := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := bw.Write(jsonData); err != nil {
		return nil, fmt.Errorf("failed to compress report: %w", err)
	}
	if err := bw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close brotli writer: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeReport(data []byte) (*types.Report, error) {
	jsonData, err := io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress report: %w", err)
	}
	var r types.Report
	if err := json.Unmarshal(jsonData, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &r, nil
}
