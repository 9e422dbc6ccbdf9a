package store

import (
	"context"
	"sort"
	"sync"

	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/domain"
)

// MemoryStore is the default JobStore: a mutex-guarded map. Jobs persist for
// the process lifetime; there is no eviction. For durable retention use the
// PostgresStore instead.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

// NewMemoryStore creates an empty in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*domain.Job),
	}
}

func (s *MemoryStore) Create(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return domain.ErrDuplicateJob
	}

	stored := *job
	s.jobs[job.ID] = &stored
	return nil
}

func (s *MemoryStore) Get(_ context.Context, jobID string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, domain.ErrJobNotFound
	}

	copied := *job
	return &copied, nil
}

func (s *MemoryStore) Transition(_ context.Context, jobID, status string, result *domain.GradeResult, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return domain.ErrJobNotFound
	}

	if domain.TerminalStatus(job.Status) {
		return domain.ErrTerminalState
	}

	// Status, result and error change under the same lock so a concurrent
	// Get can never see a completed job without its result.
	job.Status = status
	job.Result = result
	job.Error = errMsg
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		copied := *job
		jobs = append(jobs, &copied)
	}

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID > jobs[j].ID
		}
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	return jobs, nil
}

func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{TotalJobs: len(s.jobs)}
	for _, job := range s.jobs {
		if job.Active() {
			stats.ActiveJobs++
		}
	}
	return stats, nil
}
