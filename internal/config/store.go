package config

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Store holds the live configuration document as a publish-subscribe
// snapshot: writers publish a new *Config atomically, readers pin whatever
// snapshot was current when they started handling a request. No listener
// restart is ever required.
//
// Grounded on zhuqinshu-CLIProxyAPI's internal/watcher config-reload pattern,
// generalized from SHA-256 file-hash diffing to mtime polling since the
// gateway has no other reason to pull in a hashing dependency.
type Store struct {
	path    string
	current atomic.Pointer[Config]
	mtime   atomic.Int64
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewStore loads path once and returns a Store; call Watch to begin
// hot-reload polling.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	cfg, mt, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	s.current.Store(cfg)
	s.mtime.Store(mt)
	return s, nil
}

func loadFile(path string) (*Config, int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, 0, err
	}
	return cfg, info.ModTime().UnixNano(), nil
}

// Snapshot returns the currently published configuration. Safe for
// concurrent use; the returned pointer is never mutated in place.
func (s *Store) Snapshot() *Config {
	return s.current.Load()
}

// Watch starts a background poller that republishes a new snapshot whenever
// gui_config.json's mtime advances. In-flight requests keep the snapshot
// they already pinned; only new requests observe the update.
func (s *Store) Watch(interval time.Duration) {
	if interval <= 0 {
		interval = ConfigPollInterval
	}
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go func() {
		defer close(s.doneCh)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.poll()
			}
		}
	}()
}

func (s *Store) poll() {
	info, err := os.Stat(s.path)
	if err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("config: stat failed during reload poll")
		return
	}
	mt := info.ModTime().UnixNano()
	if mt == s.mtime.Load() {
		return
	}
	cfg, newMt, err := loadFile(s.path)
	if err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("config: reload failed, keeping previous snapshot")
		return
	}
	s.current.Store(cfg)
	s.mtime.Store(newMt)
	log.Info().Str("path", s.path).Msg("config: reloaded")
}

// Stop halts the background poller, if running.
func (s *Store) Stop() {
	if s.stopCh == nil {
		return
	}
	close(s.stopCh)
	<-s.doneCh
}
