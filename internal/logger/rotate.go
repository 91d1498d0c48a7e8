package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// rotatingFile is an io.Writer that moves the log aside once it grows past
// MaxSize or gets older than MaxAge days, keeping MaxBackups numbered copies.
type rotatingFile struct {
	mu      sync.Mutex
	config  Config
	file    *os.File
	size    int64
	created time.Time
}

func openRotating(config Config) (*rotatingFile, error) {
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	r := &rotatingFile{config: config}
	if err := r.open(); err != nil {
		return nil, err
	}

	if r.needsRotation(0) {
		if err := r.rotate(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *rotatingFile) open() error {
	file, err := os.OpenFile(r.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}
	r.file = file
	r.size = info.Size()
	r.created = info.ModTime()
	if r.size == 0 {
		r.created = time.Now()
	}
	return nil
}

func (r *rotatingFile) needsRotation(incoming int) bool {
	if r.config.MaxSize > 0 && r.size > 0 && r.size+int64(incoming) > r.config.MaxSize {
		return true
	}
	if r.config.MaxAge > 0 && r.size > 0 && time.Since(r.created) > time.Duration(r.config.MaxAge)*24*time.Hour {
		return true
	}
	return false
}

// rotate shifts file.N to file.N+1, moves the current log to file.1 and
// reopens an empty file. Caller holds mu or is the constructor.
func (r *rotatingFile) rotate() error {
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}

	path := r.config.FilePath
	backups := r.config.MaxBackups
	if backups < 1 {
		backups = 1
	}

	os.Remove(fmt.Sprintf("%s.%d", path, backups))
	for i := backups - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", path, i), fmt.Sprintf("%s.%d", path, i+1))
	}

	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+".1"); err != nil {
			return err
		}
	}

	return r.open()
}

func (r *rotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.needsRotation(len(p)) {
		if err := r.rotate(); err != nil {
			return 0, err
		}
	}
	if r.file == nil {
		return 0, os.ErrClosed
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *rotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
