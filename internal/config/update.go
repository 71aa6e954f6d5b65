package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

// UpdateFile applies mutate to the configuration stored at path and writes the
// result back atomically. The file is decoded without normalization so values
// supplied through the environment are never persisted.
func UpdateFile(path string, mutate func(*Config) error) error {
	if mutate == nil {
		return errors.New("update config: mutate function required")
	}
	cfg := Default()
	if err := decodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := mutate(&cfg); err != nil {
		return err
	}

	check := cfg
	check.Paths.MonitoredDirs = slices.Clone(cfg.Paths.MonitoredDirs)
	if err := check.normalize(); err != nil {
		return err
	}
	if err := check.Validate(); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// AddMonitoredDir appends dir to paths.monitored_dirs. It returns false when an
// entry resolving to the same location already exists.
func AddMonitoredDir(path, dir string) (bool, error) {
	target, err := expandPath(dir)
	if err != nil {
		return false, err
	}
	added := false
	err = UpdateFile(path, func(cfg *Config) error {
		for _, existing := range cfg.Paths.MonitoredDirs {
			if resolved, err := expandPath(existing); err == nil && resolved == target {
				return nil
			}
		}
		cfg.Paths.MonitoredDirs = append(cfg.Paths.MonitoredDirs, dir)
		added = true
		return nil
	})
	return added, err
}

// RemoveMonitoredDir drops every entry resolving to dir. It returns false when
// nothing matched.
func RemoveMonitoredDir(path, dir string) (bool, error) {
	target, err := expandPath(dir)
	if err != nil {
		return false, err
	}
	removed := false
	err = UpdateFile(path, func(cfg *Config) error {
		kept := cfg.Paths.MonitoredDirs[:0]
		for _, existing := range cfg.Paths.MonitoredDirs {
			if resolved, err := expandPath(existing); err == nil && resolved == target {
				removed = true
				continue
			}
			kept = append(kept, existing)
		}
		cfg.Paths.MonitoredDirs = kept
		return nil
	})
	return removed, err
}
