package domain

import (
	"path"
	"strings"
)

// Backup is a configuration backup file held by the backend.
type Backup struct {
	Filename string `json:"filename" yaml:"filename"`
}

// Format returns the backup's file format derived from its extension.
func (b Backup) Format() string {
	switch strings.ToLower(path.Ext(b.Filename)) {
	case ".json":
		return "JSON"
	case ".yaml", ".yml":
		return "YAML"
	default:
		return "OTHER"
	}
}
