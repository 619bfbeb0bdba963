package workload

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/taegyunkim/denarii/sim"
)

// traceFile is the on-disk YAML form of one run's trace.
type traceFile struct {
	Key   string          `yaml:"key"`
	Run   int             `yaml:"run"`
	Ticks [][]sim.Arrival `yaml:"ticks"`
}

// FileCache stores each run of a key as a YAML file named <key>_<run>.denarii.yaml
// under a directory.
type FileCache struct {
	dir string
}

// NewFileCache creates a FileCache rooted at dir, creating the directory if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		return nil, fmt.Errorf("file trace cache requires a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating trace cache directory: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) path(key TraceKey, run int) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s_%d.denarii.yaml", key, run))
}

// Load reads all MaxRuns files of key. A missing file is a miss.
func (c *FileCache) Load(key TraceKey) ([]Trace, bool, error) {
	traces := make([]Trace, 0, MaxRuns)
	for run := 0; run < MaxRuns; run++ {
		data, err := os.ReadFile(c.path(key, run))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("reading cached trace: %w", err)
		}
		var tf traceFile
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&tf); err != nil {
			return nil, false, fmt.Errorf("parsing cached trace %s: %w", c.path(key, run), err)
		}
		if tf.Key != key.String() || tf.Run != run {
			return nil, false, fmt.Errorf("cached trace %s holds key %q run %d", c.path(key, run), tf.Key, tf.Run)
		}
		traces = append(traces, Trace(tf.Ticks))
	}
	return traces, true, nil
}

func (c *FileCache) Store(key TraceKey, traces []Trace) error {
	for run, tr := range traces {
		data, err := yaml.Marshal(traceFile{Key: key.String(), Run: run, Ticks: tr})
		if err != nil {
			return fmt.Errorf("encoding trace run %d: %w", run, err)
		}
		if err := os.WriteFile(c.path(key, run), data, 0o644); err != nil {
			return fmt.Errorf("writing trace run %d: %w", run, err)
		}
	}
	return nil
}

func (c *FileCache) Close() error { return nil }
