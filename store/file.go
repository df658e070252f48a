// Package store persists the demand model artifact.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"cybercafe-demand-api/forecast"
)

const (
	// FormatVersion is the artifact envelope version written by Save.
	FormatVersion = 1

	artifactFileMode = 0o644
	artifactDirMode  = 0o755
	tempFilePattern  = ".demand-model-*.json.tmp"
)

type artifact struct {
	FormatVersion int                    `json:"format_version"`
	Model         *forecast.TrainedModel `json:"model"`
}

// FileStore keeps the current model as a single JSON file. Writes go to a
// temp file in the same directory and are renamed over the artifact, so
// readers see either the previous or the new model in full.
type FileStore struct {
	path string
}

var _ forecast.ModelStore = (*FileStore)(nil)

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("model path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve model path: %w", err)
	}
	return &FileStore{path: abs}, nil
}

// Path returns the canonical artifact location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Save(ctx context.Context, model *forecast.TrainedModel) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", forecast.ErrPersistence, err)
	}
	if model == nil {
		return fmt.Errorf("%w: nil model", forecast.ErrPersistence)
	}
	if err := validate(model); err != nil {
		return fmt.Errorf("%w: refusing to save invalid model: %w", forecast.ErrPersistence, err)
	}

	data, err := json.Marshal(artifact{FormatVersion: FormatVersion, Model: model})
	if err != nil {
		return fmt.Errorf("%w: encode model: %w", forecast.ErrPersistence, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, artifactDirMode); err != nil {
		return fmt.Errorf("%w: create model directory: %w", forecast.ErrPersistence, err)
	}

	tempFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("%w: create temp model file: %w", forecast.ErrPersistence, err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("%w: write temp model file: %w", forecast.ErrPersistence, err)
	}
	if err := tempFile.Chmod(artifactFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("%w: chmod temp model file: %w", forecast.ErrPersistence, err)
	}
	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("%w: sync temp model file: %w", forecast.ErrPersistence, err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("%w: close temp model file: %w", forecast.ErrPersistence, err)
	}

	if err := os.Rename(tempName, s.path); err != nil {
		return fmt.Errorf("%w: replace model file: %w", forecast.ErrPersistence, err)
	}
	cleanup = false

	syncDir(dir)
	return nil
}

func (s *FileStore) Load(ctx context.Context) (*forecast.TrainedModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", forecast.ErrPersistence, err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, forecast.ErrModelNotFound
		}
		return nil, fmt.Errorf("%w: read model file: %w", forecast.ErrPersistence, err)
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: decode model file: %w", forecast.ErrCorrupt, err)
	}
	if a.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", forecast.ErrCorrupt, a.FormatVersion)
	}
	if a.Model == nil {
		return nil, fmt.Errorf("%w: artifact has no model", forecast.ErrCorrupt)
	}
	if err := validate(a.Model); err != nil {
		return nil, fmt.Errorf("%w: %w", forecast.ErrCorrupt, err)
	}
	return a.Model, nil
}

func (s *FileStore) Exists(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%w: %w", forecast.ErrPersistence, err)
	}
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: stat model file: %w", forecast.ErrPersistence, err)
	}
	return info.Mode().IsRegular(), nil
}

func validate(m *forecast.TrainedModel) error {
	if m.FeatureSchemaVersion == "" {
		return errors.New("missing feature schema version")
	}
	if len(m.Coefficients) == 0 {
		return errors.New("model has no coefficients")
	}
	if len(m.Coefficients) != len(m.FeatureNames) {
		return fmt.Errorf("%d coefficients for %d feature names", len(m.Coefficients), len(m.FeatureNames))
	}
	if !finite(m.Intercept) {
		return errors.New("intercept is not finite")
	}
	for i, c := range m.Coefficients {
		if !finite(c) {
			return fmt.Errorf("coefficient %d (%s) is not finite", i, m.FeatureNames[i])
		}
	}
	if m.TrainingSampleCount <= 0 {
		return errors.New("training sample count must be positive")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// syncDir flushes the rename to disk where the platform allows it.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
