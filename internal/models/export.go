package models

import "time"

// Export document constants
const (
	ExportVersion = "1.0"
	ExportAppName = "cadenza"
)

// ExportFilter selects which queue items an export includes
type ExportFilter string

const (
	ExportFilterAll       ExportFilter = "all"
	ExportFilterPending   ExportFilter = "pending"
	ExportFilterCompleted ExportFilter = "completed"
)

// IsValid reports whether f is a known filter
func (f ExportFilter) IsValid() bool {
	switch f {
	case ExportFilterAll, ExportFilterPending, ExportFilterCompleted:
		return true
	}
	return false
}

// ExportDocument is the versioned, self-describing exchange format for
// queue transfer between installations.
type ExportDocument struct {
	Version    string    `json:"version" validate:"required"`
	ExportDate time.Time `json:"export_date" validate:"required"`
	AppName    string    `json:"app_name" validate:"required"`

	// Queue presence is checked separately: validator's required tag would
	// reject a legitimately empty exported queue.
	Queue []QueueItem `json:"queue"`
}

// ImportResult reports a completed import. Invalid items are collected as
// warnings without discarding the valid remainder.
type ImportResult struct {
	Imported int      `json:"imported"`
	Warnings []string `json:"warnings,omitempty"`
}
