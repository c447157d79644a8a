package model

import (
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LatestFile is the copy of the most recently saved artifact.
const LatestFile = "latest.gob"

// ErrArtifactNotFound is returned when no artifact file exists.
var ErrArtifactNotFound = errors.New("model artifact not found")

// Store keeps artifacts as <name>_<version>.gob files plus latest.gob.
type Store struct {
	dir  string
	name string
}

// NewStore creates a store rooted at dir for artifacts named name.
func NewStore(dir, name string) *Store {
	return &Store{dir: dir, name: name}
}

// Dir returns the artifact directory.
func (s *Store) Dir() string {
	return s.dir
}

// PathFor returns the file path of a version.
func (s *Store) PathFor(version string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.gob", s.name, version))
}

// LatestPath returns the path of latest.gob.
func (s *Store) LatestPath() string {
	return filepath.Join(s.dir, LatestFile)
}

// Save writes the versioned file and refreshes latest.gob.
func (s *Store) Save(a *Artifact) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create model dir: %w", err)
	}
	path := s.PathFor(a.Version)
	if err := writeArtifact(path, a); err != nil {
		return "", err
	}
	if err := writeArtifact(s.LatestPath(), a); err != nil {
		return "", err
	}
	slog.Info("Model: artifact saved", "path", path)
	return path, nil
}

// writeArtifact encodes to a temp file and renames it so a reader never
// loads a partial file.
func writeArtifact(path string, a *Artifact) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(a); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads an artifact file.
func (s *Store) Load(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var a Artifact
	if err := gob.NewDecoder(f).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", path, err)
	}
	if a.Encoder == nil || a.Regressor == nil {
		return nil, fmt.Errorf("%w: %s is incomplete", ErrArtifactNotFound, path)
	}
	return &a, nil
}

// LoadLatest reads latest.gob.
func (s *Store) LoadLatest() (*Artifact, error) {
	return s.Load(s.LatestPath())
}

// Versions lists stored versions, newest first.
func (s *Store) Versions() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	prefix := s.name + "_"
	var versions []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".gob") {
			continue
		}
		versions = append(versions, strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".gob"))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))
	return versions, nil
}

// PruneConfig holds configuration for artifact cleanup
type PruneConfig struct {
	Keep             int  // Number of newest versions to keep
	MaxDeletionCount int  // Safety limit per run
	DryRun           bool // Only report what would be deleted
}

// PruneResult holds the result of a cleanup operation
type PruneResult struct {
	TargetCount  int       `json:"target_count"`
	DeletedCount int       `json:"deleted_count"`
	ErrorCount   int       `json:"error_count"`
	DryRun       bool      `json:"dry_run"`
	ExecutedAt   time.Time `json:"executed_at"`
	Deleted      []string  `json:"deleted"`
	Errors       []string  `json:"errors,omitempty"`
}

// Prune deletes versioned artifacts beyond the newest cfg.Keep.
// latest.gob is never touched.
func (s *Store) Prune(cfg PruneConfig) (*PruneResult, error) {
	result := &PruneResult{
		DryRun:     cfg.DryRun,
		ExecutedAt: time.Now(),
	}

	versions, err := s.Versions()
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	keep := cfg.Keep
	if keep < 1 {
		keep = 1
	}
	if len(versions) <= keep {
		slog.Info("Model: nothing to prune", "versions", len(versions), "keep", keep)
		return result, nil
	}

	targets := versions[keep:]
	result.TargetCount = len(targets)

	if cfg.MaxDeletionCount > 0 && len(targets) > cfg.MaxDeletionCount {
		return result, fmt.Errorf("safety check failed: attempting to delete %d artifacts (max: %d)",
			len(targets), cfg.MaxDeletionCount)
	}

	if cfg.DryRun {
		slog.Info("Model: dry run, would delete artifacts", "count", len(targets))
		result.Deleted = append(result.Deleted, targets...)
		return result, nil
	}

	for _, v := range targets {
		if err := os.Remove(s.PathFor(v)); err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", v, err))
			continue
		}
		result.DeletedCount++
		result.Deleted = append(result.Deleted, v)
	}

	slog.Info("Model: prune completed", "deleted", result.DeletedCount, "errors", result.ErrorCount)
	return result, nil
}
