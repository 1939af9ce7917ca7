package dataset

import (
	"context"
	"sync"

	"github.com/mwantia/gotagger/pkg/log"
)

// Manager owns the single active dataset session of the process
type Manager interface {
	// Open reconciles the folder at path and makes it the active dataset.
	// The previous session stays active when opening fails.
	Open(ctx context.Context, path string) (*SyncReport, error)

	// Current returns the active session or ErrNoDataset.
	Current() (*Session, error)

	Close() error
}

type ManagerImpl struct {
	mutex   sync.RWMutex
	session *Session

	opts Options
	log  log.LoggerService
}

func NewManager(opts Options, logger log.LoggerService) *ManagerImpl {
	return &ManagerImpl{
		opts: opts,
		log:  logger,
	}
}

func (m *ManagerImpl) Open(ctx context.Context, path string) (*SyncReport, error) {
	session, err := OpenSession(ctx, path, m.opts, m.log)
	if err != nil {
		return nil, err
	}

	report, err := session.Reconcile(ctx)
	if err != nil {
		session.Close()
		return nil, err
	}

	m.mutex.Lock()
	previous := m.session
	m.session = session
	m.mutex.Unlock()

	if previous != nil {
		if err := previous.Close(); err != nil {
			m.log.Warn("Failed to close previous dataset '%s': %v", previous.Root(), err)
		}
	}

	m.log.Info("Active dataset is now '%s'", session.Root())
	return report, nil
}

func (m *ManagerImpl) Current() (*Session, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.session == nil {
		return nil, ErrNoDataset
	}
	return m.session, nil
}

func (m *ManagerImpl) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.session == nil {
		return nil
	}

	err := m.session.Close()
	m.session = nil
	return err
}
