package api

import "sync"

// Automation owns the process-wide running flag. The flag is informational
// only and is not persisted across restarts.
type Automation struct {
	mu      sync.RWMutex
	running bool
}

func NewAutomation() *Automation {
	return &Automation{}
}

func (a *Automation) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = true
}

func (a *Automation) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = false
}

func (a *Automation) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}
