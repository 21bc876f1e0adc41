package domain

import (
	units "github.com/docker/go-units"
)

// Image is a locally stored image on the Docker host.
type Image struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Tag        string `json:"tag" yaml:"tag"`
	Size       string `json:"size" yaml:"size"`
	CreateTime string `json:"createTime,omitempty" yaml:"create_time,omitempty"`
	InUsed     bool   `json:"inUsed" yaml:"in_use"`
}

// Ref returns the image reference in name:tag form.
func (i Image) Ref() string {
	if i.Tag == "" {
		return i.Name
	}
	return i.Name + ":" + i.Tag
}

// SizeBytes parses the backend's human-readable size ("123.4MB", "1.2 GB").
// Unparseable sizes yield 0.
func (i Image) SizeBytes() int64 {
	if i.Size == "" {
		return 0
	}
	n, err := units.FromHumanSize(i.Size)
	if err != nil {
		return 0
	}
	return n
}

// TotalSize sums SizeBytes across images.
func TotalSize(images []Image) int64 {
	var total int64
	for _, img := range images {
		total += img.SizeBytes()
	}
	return total
}
