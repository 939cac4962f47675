// Package repository defines the persistence interfaces for migration metadata:
// jobs, reports and mapping templates. Concrete implementations live under
// infrastructure/repository.
package repository

// Repository is the composite interface for persisting migration metadata.
// It embeds the per-concern store interfaces to separate responsibilities.
type Repository interface {
	JobStore
	TemplateStore
	ReportStore

	// Close releases resources (such as database connections) used by the repository.
	Close() error
}
