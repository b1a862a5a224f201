package websocket

import (
	"time"

	"go.uber.org/zap"
)

// defaultIdleTimeout is how long a voice session may sit with no updates
// before the watchdog ends it. A forgotten open session keeps the
// microphone and the API connection alive.
const defaultIdleTimeout = 10 * time.Minute

// IdleWatchdog ends the voice session when it has been idle too long.
type IdleWatchdog struct {
	hub         *Hub
	idleTimeout time.Duration
	logger      *zap.Logger
	stopChan    chan struct{}
}

// NewIdleWatchdog creates a watchdog over the hub's voice controller. A
// non-positive idleTimeout selects the default.
func NewIdleWatchdog(hub *Hub, idleTimeout time.Duration, logger *zap.Logger) *IdleWatchdog {
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleTimeout
	}
	return &IdleWatchdog{
		hub:         hub,
		idleTimeout: idleTimeout,
		logger:      logger,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the background idle check
func (w *IdleWatchdog) Start() {
	go w.watchLoop()
	w.logger.Info("Voice idle watchdog started",
		zap.Duration("idle_timeout", w.idleTimeout))
}

// Stop gracefully stops the watchdog
func (w *IdleWatchdog) Stop() {
	close(w.stopChan)
	w.logger.Info("Voice idle watchdog stopped")
}

func (w *IdleWatchdog) watchLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.check()
		}
	}
}

// check ends the session if it is active but has produced no updates
// within the idle window
func (w *IdleWatchdog) check() {
	if !w.hub.voice.Active() {
		return
	}
	idle := time.Since(w.hub.LastActivity())
	if idle < w.idleTimeout {
		return
	}
	w.logger.Info("Ending idle voice session", zap.Duration("idle", idle))
	if err := w.hub.voice.Stop(); err != nil {
		w.logger.Error("Failed to end idle voice session", zap.Error(err))
	}
}
