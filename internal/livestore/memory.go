package livestore

import (
	"context"
	"sync"

	"smartbin-backend/internal/models"
)

// Memory is a process-local Store for demo mode and tests.
type Memory struct {
	mu       sync.RWMutex
	readings map[string]models.LiveReading
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{readings: make(map[string]models.LiveReading)}
}

func (m *Memory) GetLatest(ctx context.Context, binID string) (*models.LiveReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.readings[binID]
	if !ok {
		return nil, nil
	}
	if r.LevelCM != nil {
		level := *r.LevelCM
		r.LevelCM = &level
	}
	return &r, nil
}

func (m *Memory) SetLatest(ctx context.Context, binID string, reading models.LiveReading) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	reading.BinID = binID
	if reading.LevelCM != nil {
		level := *reading.LevelCM
		reading.LevelCM = &level
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings[binID] = reading
	return nil
}
