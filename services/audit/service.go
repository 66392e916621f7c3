package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/repositories"
	"go.uber.org/zap"
)

var (
	// ErrNotStarted is returned when events are submitted before Start or after Stop
	ErrNotStarted = errors.New("audit service not started")
	// ErrBufferFull is returned when the event buffer cannot take another event
	ErrBufferFull = errors.New("audit event buffer full")
)

// AuditEvent is a queued audit record
type AuditEvent struct {
	Log *models.AuditLog
}

// AuditService appends audit records asynchronously through a worker pool.
// Append failures never reach the caller; they are logged and counted.
type AuditService struct {
	auditRepo     repositories.AuditRepository
	logger        *zap.Logger
	eventChan     chan *AuditEvent
	workerCount   int
	bufferSize    int
	insertTimeout time.Duration
	wg            sync.WaitGroup
	started       bool
	stopped       bool
	mu            sync.Mutex

	written atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// Config holds configuration for the AuditService
type Config struct {
	BufferSize    int           // Size of the event buffer channel
	WorkerCount   int           // Number of concurrent workers
	InsertTimeout time.Duration // Deadline for a single append
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:    1000,
		WorkerCount:   2,
		InsertTimeout: 5 * time.Second,
	}
}

// NewAuditService creates a new AuditService instance
func NewAuditService(auditRepo repositories.AuditRepository, logger *zap.Logger, config Config) *AuditService {
	defaults := DefaultConfig()
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = defaults.WorkerCount
	}
	if config.InsertTimeout <= 0 {
		config.InsertTimeout = defaults.InsertTimeout
	}

	return &AuditService{
		auditRepo:     auditRepo,
		logger:        logger,
		eventChan:     make(chan *AuditEvent, config.BufferSize),
		workerCount:   config.WorkerCount,
		bufferSize:    config.BufferSize,
		insertTimeout: config.InsertTimeout,
	}
}

// Start starts the background workers
func (s *AuditService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}
	if s.stopped {
		return fmt.Errorf("audit service cannot be restarted")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop stops accepting events and waits for queued events to be written
func (s *AuditService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.stopped = true
	s.logger.Info("stopping audit service", zap.Int("pending_events", len(s.eventChan)))
	close(s.eventChan)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// LogEvent queues an event without blocking
func (s *AuditService) LogEvent(event *AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		s.dropped.Add(1)
		return ErrNotStarted
	}

	select {
	case s.eventChan <- event:
		return nil
	default:
		s.dropped.Add(1)
		return ErrBufferFull
	}
}

// LogModuleAction records a permitted mutation. It never blocks the caller and
// never returns an error: a record that cannot be queued is logged and counted.
func (s *AuditService) LogModuleAction(ctx context.Context, action ModuleAction) {
	log, err := action.toAuditLog(RequestInfoFrom(ctx))
	if err != nil {
		s.failed.Add(1)
		s.logger.Error("audit_append_failed",
			zap.Error(err),
			zap.String("module", action.Module),
			zap.String("operation", action.Operation))
		return
	}

	if err := s.LogEvent(&AuditEvent{Log: log}); err != nil {
		s.logger.Error("audit_append_failed",
			zap.Error(err),
			zap.String("action", log.Action),
			zap.String("actor_id", log.ActorUserID.String()))
	}
}

// worker processes events from the channel until it is closed
func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for event := range s.eventChan {
		if err := s.processEvent(event); err != nil {
			s.failed.Add(1)
			s.logger.Error("audit_append_failed",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("action", event.Log.Action),
				zap.String("actor_id", event.Log.ActorUserID.String()))
			continue
		}
		s.written.Add(1)
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

// processEvent writes one event on its own deadline, detached from the request
func (s *AuditService) processEvent(event *AuditEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.insertTimeout)
	defer cancel()

	if err := s.auditRepo.Insert(ctx, event.Log); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// GetStats returns statistics about the audit service
func (s *AuditService) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Started:       s.started && !s.stopped,
		Written:       s.written.Load(),
		Failed:        s.failed.Load(),
		Dropped:       s.dropped.Load(),
	}
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int   `json:"buffer_size"`
	PendingEvents int   `json:"pending_events"`
	WorkerCount   int   `json:"worker_count"`
	Started       bool  `json:"started"`
	Written       int64 `json:"written"`
	Failed        int64 `json:"failed"`
	Dropped       int64 `json:"dropped"`
}
