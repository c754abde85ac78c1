package audio

import (
	"log/slog"
	"sync"

	"github.com/jmylchreest/histshell/internal/config"
	"github.com/jmylchreest/histshell/internal/model"
)

// Manager plays the notification sound for accepted notifications.
// A notification's own sound-file hint wins over the configured sound.
type Manager struct {
	logger *slog.Logger
	player *Player

	mu      sync.RWMutex
	enabled bool
	sound   string
}

// NewManager creates a manager from cfg. player may be nil for the speaker.
func NewManager(cfg *config.Config, player *Player, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if player == nil {
		player = NewPlayer(nil, logger)
	}
	m := &Manager{logger: logger, player: player}
	m.UpdateConfig(cfg)
	return m
}

// UpdateConfig applies a reloaded configuration. Decoded sounds are dropped
// so a replaced file is read again.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.mu.Lock()
	m.enabled = cfg.Audio.Enabled
	m.sound = cfg.SoundPath()
	m.mu.Unlock()

	m.player.SetVolume(float64(cfg.Audio.Volume) / 100)
	m.player.Forget()

	if path := m.soundPath(); path != "" {
		if _, err := m.player.Load(path); err != nil {
			m.logger.Warn("notification sound unavailable", "path", path, "error", err)
		}
	}
}

func (m *Manager) soundPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.enabled {
		return ""
	}
	return m.sound
}

// SoundFor returns the file to play for n, or "" for silence.
func (m *Manager) SoundFor(n *model.Notification) string {
	if n == nil || n.SuppressSound {
		return ""
	}
	path := m.soundPath()
	if path == "" {
		return ""
	}
	if n.SoundFile != "" {
		return n.SoundFile
	}
	return path
}

// OnAccepted plays the sound for n. Failures are logged only.
func (m *Manager) OnAccepted(n *model.Notification) {
	path := m.SoundFor(n)
	if path == "" {
		return
	}
	if err := m.player.Play(path); err != nil {
		m.logger.Warn("failed to play notification sound", "id", n.ID, "path", path, "error", err)
	}
}

// Close releases the audio output.
func (m *Manager) Close() {
	m.player.Close()
}
