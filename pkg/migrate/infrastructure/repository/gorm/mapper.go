package gorm

import (
	model "github.com/firelater/migrator/pkg/migrate/core/domain/model"
)

// fromDomainJob converts a domain MigrationJob into its persistence entity.
func fromDomainJob(job *model.MigrationJob) *MigrationJobEntity {
	return &MigrationJobEntity{
		ID:                job.ID,
		TenantSlug:        job.TenantSlug,
		SourceSystem:      string(job.SourceSystem),
		EntityType:        string(job.EntityType),
		Status:            string(job.Status),
		SourceKey:         job.SourceKey,
		TotalRecords:      job.TotalRecords,
		ProcessedRecords:  job.ProcessedRecords,
		SuccessfulRecords: job.SuccessfulRecords,
		FailedRecords:     job.FailedRecords,
		SkippedRows:       job.SkippedRows,
		CreatedAt:         job.CreatedAt,
		CompletedAt:       job.CompletedAt,
		LastUpdated:       job.LastUpdated,
	}
}

// toDomainJob converts a persistence entity into a domain MigrationJob.
func toDomainJob(entity *MigrationJobEntity) *model.MigrationJob {
	return &model.MigrationJob{
		ID:                entity.ID,
		TenantSlug:        entity.TenantSlug,
		SourceSystem:      model.SourceSystem(entity.SourceSystem),
		EntityType:        model.EntityType(entity.EntityType),
		Status:            model.JobStatus(entity.Status),
		SourceKey:         entity.SourceKey,
		TotalRecords:      entity.TotalRecords,
		ProcessedRecords:  entity.ProcessedRecords,
		SuccessfulRecords: entity.SuccessfulRecords,
		FailedRecords:     entity.FailedRecords,
		SkippedRows:       entity.SkippedRows,
		CreatedAt:         entity.CreatedAt,
		CompletedAt:       entity.CompletedAt,
		LastUpdated:       entity.LastUpdated,
	}
}

// fromDomainTemplate converts a domain MappingTemplate into its persistence entity.
func fromDomainTemplate(template *model.MappingTemplate) *MappingTemplateEntity {
	return &MappingTemplateEntity{
		ID:         template.ID,
		TenantSlug: template.TenantSlug,
		Name:       template.Name,
		Config:     template.Config.Clone(),
		CreatedBy:  template.CreatedBy,
		CreatedAt:  template.CreatedAt,
	}
}

// toDomainTemplate converts a persistence entity into a domain MappingTemplate.
func toDomainTemplate(entity *MappingTemplateEntity) *model.MappingTemplate {
	return &model.MappingTemplate{
		ID:         entity.ID,
		TenantSlug: entity.TenantSlug,
		Name:       entity.Name,
		Config:     entity.Config.Clone(),
		CreatedBy:  entity.CreatedBy,
		CreatedAt:  entity.CreatedAt,
	}
}

// fromDomainReport converts a domain MigrationReport into its persistence entity.
func fromDomainReport(report *model.MigrationReport) *MigrationReportEntity {
	errors := make(model.RecordErrorList, len(report.Errors))
	copy(errors, report.Errors)
	return &MigrationReportEntity{
		JobID:             report.JobID,
		Status:            string(report.Status),
		TotalRecords:      report.TotalRecords,
		SuccessfulRecords: report.SuccessfulRecords,
		FailedRecords:     report.FailedRecords,
		Errors:            errors,
		Summary:           report.Summary,
	}
}

// toDomainReport converts a persistence entity into a domain MigrationReport.
func toDomainReport(entity *MigrationReportEntity) *model.MigrationReport {
	errors := make(model.RecordErrorList, len(entity.Errors))
	copy(errors, entity.Errors)
	return &model.MigrationReport{
		JobID:             entity.JobID,
		Status:            model.JobStatus(entity.Status),
		TotalRecords:      entity.TotalRecords,
		SuccessfulRecords: entity.SuccessfulRecords,
		FailedRecords:     entity.FailedRecords,
		Errors:            errors,
		Summary:           entity.Summary,
	}
}
