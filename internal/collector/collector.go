package collector

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/user/perfchart-go/internal/models"
)

// DatasetCollector turns a marks records file into the dataset a performance
// chart is drawn from, caching the result per source content, student and
// semester.
type DatasetCollector struct {
	SourcePath string
	USN        string // Empty keeps every student
	Semester   int    // 0 keeps every semester
	CacheDir   string
	Data       models.ChartDataset

	digest string
	logger *zap.Logger
}

// NewDatasetCollector fingerprints the source file so cached datasets are
// invalidated when it changes. An empty cacheDir disables caching.
func NewDatasetCollector(sourcePath, usn string, semester int, cacheDir string, logger *zap.Logger) (*DatasetCollector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	absSourcePath, err := filepath.Abs(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for source: %w", err)
	}
	if semester < 0 {
		return nil, fmt.Errorf("semester must not be negative, got %d", semester)
	}

	digest, err := fileDigest(absSourcePath)
	if err != nil {
		return nil, err
	}

	return &DatasetCollector{
		SourcePath: absSourcePath,
		USN:        strings.ToUpper(strings.TrimSpace(usn)),
		Semester:   semester,
		CacheDir:   cacheDir,
		digest:     digest,
		logger:     logger,
	}, nil
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open marks source %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to read marks source %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// cachePath returns the cache file for the current source content and selection.
func (dc *DatasetCollector) cachePath() string {
	student := "all"
	if dc.USN != "" {
		student = url.PathEscape(dc.USN)
	}
	return filepath.Join(dc.CacheDir, dc.digest+"-"+student+"-sem"+strconv.Itoa(dc.Semester)+".zip.gob")
}

// CacheExists checks if a cache file exists for the current source.
func (dc *DatasetCollector) CacheExists() bool {
	if dc.CacheDir == "" {
		return false
	}
	_, err := os.Stat(dc.cachePath())
	return !os.IsNotExist(err)
}

// SaveCache stores the dataset in the cache directory.
func (dc *DatasetCollector) SaveCache() error {
	if dc.CacheDir == "" {
		return nil
	}
	cacheFile := dc.cachePath()
	if err := writeArchive(cacheFile, dc.Data); err != nil {
		return err
	}
	dc.logger.Debug("Dataset cached", zap.String("path", cacheFile))
	return nil
}

// LoadCache replaces the dataset with the cached one.
func (dc *DatasetCollector) LoadCache() error {
	cacheFile := dc.cachePath()
	var data models.ChartDataset
	if err := readArchive(cacheFile, &data); err != nil {
		return err
	}
	dc.Data = data
	dc.logger.Debug("Dataset loaded from cache", zap.String("path", cacheFile))
	return nil
}

const archiveEntry = "dataset.gob"

// writeArchive stores v gob-encoded as the only entry of a zip file at path.
func writeArchive(path string, v any) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cache file %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close cache file %s: %w", path, cerr)
		}
	}()

	zw := zip.NewWriter(f)
	w, err := zw.Create(archiveEntry)
	if err != nil {
		return fmt.Errorf("failed to create %s entry in %s: %w", archiveEntry, path, err)
	}
	if err := gob.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("failed to gob-encode cache entry: %w", err)
	}
	return zw.Close()
}

// readArchive decodes the entry written by writeArchive into v.
func readArchive(path string, v any) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("failed to open cache file %s: %w", path, err)
	}
	defer zr.Close()

	entry, err := zr.Open(archiveEntry)
	if err != nil {
		return fmt.Errorf("invalid cache file %s: %w", path, err)
	}
	defer entry.Close()

	if err := gob.NewDecoder(entry).Decode(v); err != nil {
		return fmt.Errorf("failed to gob-decode cache entry: %w", err)
	}
	return nil
}

// Collect builds the dataset, from the cache when a valid one exists.
func (dc *DatasetCollector) Collect() error {
	if dc.CacheExists() {
		err := dc.LoadCache()
		// gob drops empty slices, so a cached dataset always has subjects.
		if err == nil && dc.Data.Subjects != nil {
			return nil
		}
		dc.logger.Warn("Dataset cache unusable, re-collecting", zap.String("path", dc.cachePath()), zap.Error(err))
	}

	records, err := LoadRecords(dc.SourcePath)
	if err != nil {
		return err
	}
	dc.Data = BuildDataset(records, dc.USN, dc.Semester)
	dc.logger.Info("Dataset collected",
		zap.String("source", dc.SourcePath),
		zap.Int("records", len(records)),
		zap.Int("subjects", len(dc.Data.Subjects)),
		zap.String("usn", dc.USN),
		zap.Int("semester", dc.Semester))

	if len(dc.Data.Subjects) == 0 {
		return nil
	}
	if err := dc.SaveCache(); err != nil {
		return fmt.Errorf("failed to save dataset to cache: %w", err)
	}
	return nil
}
