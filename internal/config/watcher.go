package config

import (
	"github.com/fsnotify/fsnotify"
)

// Watch reloads the configuration whenever the config file changes. Invalid
// edits are logged and the previous configuration stays in effect.
func (m *Manager) Watch() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watching {
		return
	}

	m.viper.OnConfigChange(func(e fsnotify.Event) {
		m.log.Debug().Str("op", e.Op.String()).Str("file", e.Name).Msg("config change detected")

		m.mu.Lock()
		cfg, err := m.unmarshal()
		if err != nil {
			m.mu.Unlock()
			m.log.Warn().Err(err).Msg("failed to reload config, keeping the previous one")
			return
		}
		m.config = cfg
		m.notifyCallbacksLocked()
	})
	m.viper.WatchConfig()
	m.watching = true
}

// notifyCallbacksLocked releases m.mu before running the callbacks.
func (m *Manager) notifyCallbacksLocked() {
	cfg := m.config
	callbacks := make([]func(*Config), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	for _, cb := range callbacks {
		cb(cfg)
	}
}

// OnConfigChange registers a callback run after every successful reload.
func (m *Manager) OnConfigChange(cb func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}
