// Package calstore persists a single calibration.Record to flash, using
// the same LittleFS-backed, atomic-write discipline as the lineage's
// pkg/storage: write to a temp file, sync, rename over the target, with a
// boot-time sweep that removes any temp file an interrupted write left
// behind. Unlike the lineage's multi-slot profile store, a bridge has
// exactly one operator and one record, so there is no slot addressing.
package calstore

import (
	"errors"
	"os"
	"path"
	"strings"

	"github.com/tuffrabit/tinygo-joybus-bridge/pkg/calibration"

	"tinygo.org/x/tinyfs"
	"tinygo.org/x/tinyfs/littlefs"
)

const (
	calDir     = "/cal"
	calFile    = "/cal/calibration.bin"
	tempSuffix = ".tmp"
)

var (
	ErrNotFound        = errors.New("calstore: no calibration record stored")
	ErrInvalidRecord   = errors.New("calstore: invalid calibration record")
	ErrVersionMismatch = errors.New("calstore: calibration version mismatch")
)

// Manager wraps a mounted LittleFS filesystem holding one calibration
// record.
type Manager struct {
	fs       *littlefs.LFS
	blockDev tinyfs.BlockDevice
	mounted  bool
}

// New mounts blockDev, formatting it first if format is true and mount
// fails, performs boot-time temp-file cleanup, and wipes any stored
// record whose version does not match calibration.CurrentVersion.
func New(blockDev tinyfs.BlockDevice, format bool) (*Manager, error) {
	lfs := littlefs.New(blockDev)
	lfs.Configure(&littlefs.Config{
		CacheSize:     512,
		LookaheadSize: 128,
	})

	if err := lfs.Mount(); err != nil {
		if !format {
			return nil, err
		}
		if err := lfs.Format(); err != nil {
			return nil, err
		}
		if err := lfs.Mount(); err != nil {
			return nil, err
		}
	}

	m := &Manager{fs: lfs, blockDev: blockDev, mounted: true}

	if err := m.bootCleanup(); err != nil {
		// Stale temp files are harmless clutter; press on.
	}

	if mismatch, err := m.versionMismatch(); err == nil && mismatch {
		m.fs.Remove(calFile)
	}

	return m, nil
}

// Close unmounts the filesystem.
func (m *Manager) Close() error {
	if m.mounted {
		m.mounted = false
		return m.fs.Unmount()
	}
	return nil
}

func (m *Manager) bootCleanup() error {
	entries, err := m.readDir(calDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), tempSuffix) {
			m.fs.Remove(path.Join(calDir, entry.Name()))
		}
	}
	return nil
}

func (m *Manager) readDir(dirPath string) ([]os.FileInfo, error) {
	f, err := m.fs.Open(dirPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if !f.IsDir() {
		return nil, errors.New("calstore: not a directory")
	}
	return f.Readdir(-1)
}

func (m *Manager) versionMismatch() (bool, error) {
	rec, err := m.Load()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return rec.Version != calibration.CurrentVersion, nil
}

func (m *Manager) ensureDir() error {
	if err := m.fs.Mkdir(calDir, 0755); err != nil && !isExist(err) {
		return err
	}
	return nil
}

func isExist(err error) bool {
	if err == nil {
		return false
	}
	if os.IsExist(err) {
		return true
	}
	return strings.Contains(err.Error(), "already exists")
}

// Load reads the stored calibration record, or ErrNotFound if none has
// ever been saved.
func (m *Manager) Load() (calibration.Record, error) {
	var rec calibration.Record
	f, err := m.fs.Open(calFile)
	if err != nil {
		if os.IsNotExist(err) || strings.Contains(err.Error(), "No directory entry") {
			return rec, ErrNotFound
		}
		return rec, err
	}
	defer f.Close()

	buf := make([]byte, calibration.RecordSize)
	n, err := f.Read(buf)
	if err != nil {
		return rec, err
	}
	if n != calibration.RecordSize {
		return rec, ErrInvalidRecord
	}
	if err := rec.UnmarshalBinary(buf); err != nil {
		return rec, err
	}
	return rec, nil
}

// Save writes rec atomically, stamping it with the current format
// version first.
func (m *Manager) Save(rec calibration.Record) error {
	if err := m.ensureDir(); err != nil {
		return err
	}
	rec.Version = calibration.CurrentVersion
	data, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	return m.atomicWrite(calFile, data)
}

// ForceWipe removes the stored record, if any.
func (m *Manager) ForceWipe() error {
	return m.fs.Remove(calFile)
}

func (m *Manager) atomicWrite(filePath string, data []byte) error {
	tempPath := filePath + tempSuffix
	m.fs.Remove(tempPath)

	f, err := m.fs.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		m.fs.Remove(tempPath)
		return err
	}
	if syncer, ok := f.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			f.Close()
			m.fs.Remove(tempPath)
			return err
		}
	}
	if err := f.Close(); err != nil {
		m.fs.Remove(tempPath)
		return err
	}
	m.fs.Remove(filePath)
	if err := m.fs.Rename(tempPath, filePath); err != nil {
		m.fs.Remove(tempPath)
		return err
	}
	return nil
}
