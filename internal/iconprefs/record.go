package iconprefs

import "time"

// Mapping assigns an icon URL to an image reference. ImageRef may carry a
// tag ("nginx:alpine") to match that tag only, or be a bare name ("nginx")
// to match every tag.
type Mapping struct {
	ImageRef  string    `json:"image_ref" yaml:"image_ref"`
	URL       string    `json:"url" yaml:"url"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}
