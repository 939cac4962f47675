// Package inmemory provides a mutex-guarded, map-backed implementation of the
// domain repository, used in tests and for ephemeral single-process runs.
package inmemory

import (
	"context"
	"sort"
	"sync"

	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
	repo "github.com/firelater/migrator/pkg/migrate/core/domain/repository"
)

// InMemoryRepository implements repository.Repository on top of maps. Values
// are copied on the way in and out so callers never share mutable state with
// the store.
type InMemoryRepository struct {
	mu        sync.RWMutex
	jobs      map[string]*model.MigrationJob
	jobOrder  []string
	templates map[string]*model.MappingTemplate
	reports   map[string]*model.MigrationReport // keyed by job ID
}

// Verify that InMemoryRepository implements the repository.Repository interface.
var _ repo.Repository = (*InMemoryRepository)(nil)

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		jobs:      make(map[string]*model.MigrationJob),
		templates: make(map[string]*model.MappingTemplate),
		reports:   make(map[string]*model.MigrationReport),
	}
}

// SaveJob persists a new MigrationJob.
func (r *InMemoryRepository) SaveJob(ctx context.Context, job *model.MigrationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID]; !exists {
		r.jobOrder = append(r.jobOrder, job.ID)
	}
	r.jobs[job.ID] = copyJob(job)
	return nil
}

// UpdateJob updates the state of an existing MigrationJob.
func (r *InMemoryRepository) UpdateJob(ctx context.Context, job *model.MigrationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID]; !exists {
		return repo.ErrJobNotFound
	}
	r.jobs[job.ID] = copyJob(job)
	return nil
}

// FindJobByID finds a MigrationJob by its ID.
func (r *InMemoryRepository) FindJobByID(ctx context.Context, jobID string) (*model.MigrationJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, repo.ErrJobNotFound
	}
	return copyJob(job), nil
}

// FindJobsByTenant finds the most recent MigrationJobs for a tenant, newest first.
func (r *InMemoryRepository) FindJobsByTenant(ctx context.Context, tenantSlug string, limit int) ([]*model.MigrationJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	jobs := make([]*model.MigrationJob, 0)
	for _, id := range r.jobOrder {
		job := r.jobs[id]
		if job.TenantSlug == tenantSlug {
			jobs = append(jobs, copyJob(job))
		}
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// SaveTemplate persists a MappingTemplate.
func (r *InMemoryRepository) SaveTemplate(ctx context.Context, template *model.MappingTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[template.ID] = copyTemplate(template)
	return nil
}

// FindTemplateByID finds a MappingTemplate by its ID.
func (r *InMemoryRepository) FindTemplateByID(ctx context.Context, templateID string) (*model.MappingTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	template, ok := r.templates[templateID]
	if !ok {
		return nil, repo.ErrTemplateNotFound
	}
	return copyTemplate(template), nil
}

// FindTemplatesByTenant finds all MappingTemplates saved by a tenant.
func (r *InMemoryRepository) FindTemplatesByTenant(ctx context.Context, tenantSlug string) ([]*model.MappingTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	templates := make([]*model.MappingTemplate, 0)
	for _, template := range r.templates {
		if template.TenantSlug == tenantSlug {
			templates = append(templates, copyTemplate(template))
		}
	}
	sort.SliceStable(templates, func(i, j int) bool {
		return templates[i].CreatedAt.After(templates[j].CreatedAt)
	})
	return templates, nil
}

// SaveReport persists the report produced by a migration execution.
func (r *InMemoryRepository) SaveReport(ctx context.Context, report *model.MigrationReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[report.JobID] = copyReport(report)
	return nil
}

// FindReportByJobID finds the report for the given job ID.
func (r *InMemoryRepository) FindReportByJobID(ctx context.Context, jobID string) (*model.MigrationReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	report, ok := r.reports[jobID]
	if !ok {
		return nil, repo.ErrReportNotFound
	}
	return copyReport(report), nil
}

// Close does nothing for the in-memory repository.
func (r *InMemoryRepository) Close() error {
	return nil
}

func copyJob(job *model.MigrationJob) *model.MigrationJob {
	c := *job
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

func copyTemplate(template *model.MappingTemplate) *model.MappingTemplate {
	c := *template
	c.Config = template.Config.Clone()
	return &c
}

func copyReport(report *model.MigrationReport) *model.MigrationReport {
	c := *report
	c.Errors = make(model.RecordErrorList, len(report.Errors))
	copy(c.Errors, report.Errors)
	return &c
}
