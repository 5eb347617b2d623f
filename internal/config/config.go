// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers a YAML file and the environment on top.
// - Every field is validated with go-playground/validator struct tags.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// MaxUploadBytes caps the multipart body of one import request.
	MaxUploadBytes int64 `koanf:"max_upload_bytes" validate:"gt=0"`

	// MaxFilesPerBatch caps the number of files selected together.
	MaxFilesPerBatch int `koanf:"max_files_per_batch" validate:"gt=0"`

	// ReadConcurrency bounds parallel file reads inside a batch.
	ReadConcurrency int `koanf:"read_concurrency" validate:"gt=0"`

	// MaxListLimit caps GET /sessions/{id}/rankings?limit.
	MaxListLimit int `koanf:"max_list_limit" validate:"gt=0"`

	// SessionTTL is how long an idle session survives.
	SessionTTL time.Duration `koanf:"session_ttl" validate:"gt=0"`

	// SessionSweepInterval is how often idle sessions are looked for.
	SessionSweepInterval time.Duration `koanf:"session_sweep_interval" validate:"gt=0"`

	// DuplicatePolicy is keep or flag.
	DuplicatePolicy string `koanf:"duplicate_policy" validate:"oneof=keep flag"`

	// IDMatch is exact or normalized; normalized ignores case and surrounding
	// whitespace when looking for duplicate ids.
	IDMatch string `koanf:"id_match" validate:"oneof=exact normalized"`

	// ExportQuoting is none or rfc4180.
	ExportQuoting string `koanf:"export_quoting" validate:"oneof=none rfc4180"`

	// LintUploads attaches csvlint warnings to every imported file.
	LintUploads bool `koanf:"lint_uploads"`

	// AllowedExtension is the only accepted upload suffix.
	AllowedExtension string `koanf:"allowed_extension" validate:"required,startswith=."`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		MaxUploadBytes:       32 << 20,
		MaxFilesPerBatch:     64,
		ReadConcurrency:      runtime.NumCPU(),
		MaxListLimit:         1000,
		SessionTTL:           2 * time.Hour,
		SessionSweepInterval: time.Minute,
		DuplicatePolicy:      "keep",
		IDMatch:              "exact",
		ExportQuoting:        "none",
		LintUploads:          true,
		AllowedExtension:     ".csv",
	}
}
