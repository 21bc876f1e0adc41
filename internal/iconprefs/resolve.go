package iconprefs

import (
	"maps"
	"slices"
	"strings"

	"github.com/distribution/reference"

	"nathanbeddoewebdev/dockctl/internal/domain"
)

// Catalog lists the built-in icons for common images, keyed by image name
// without tag.
var Catalog = map[string]string{
	"xylplm/media-saber":                       "https://icon.xiaoge.org/images/docker/MediaSaber.png",
	"mtphotos/mt-photos":                       "https://icon.xiaoge.org/images/docker/MT-Photos.png",
	"mtphotos/mt-photos-ai":                    "https://icon.xiaoge.org/images/docker/MT-Photos.png",
	"kqstone/mt-photos-insightface-unofficial": "https://icon.xiaoge.org/images/docker/MT-Photos.png",
	"0nlylty/dockercopilot":                    "https://icon.xiaoge.org/images/docker/DockerCopilot-3.png",
	"whyour/qinglong":                          "https://qn.whyour.cn/favicon.svg",
}

// CatalogNames returns the catalog keys in sorted order.
func CatalogNames() []string {
	return slices.Sorted(maps.Keys(Catalog))
}

// Icon sources, in resolution order.
const (
	SourceContainer = "container"
	SourceExact     = "mapping"
	SourceName      = "mapping-name"
	SourceCatalog   = "catalog"
)

// Resolve picks the icon for a container: its own icon URL, then a custom
// mapping for the exact image reference, then a custom mapping for the image
// name without tag, then the built-in catalog. It returns "" when nothing
// matches.
func Resolve(c domain.Container, mappings []Mapping) (url, source string) {
	if c.IconURL != "" {
		return c.IconURL, SourceContainer
	}
	if c.UsingImage == "" {
		return "", ""
	}

	for _, m := range mappings {
		if m.ImageRef == c.UsingImage {
			return m.URL, SourceExact
		}
	}

	name := ImageName(c.UsingImage)
	for _, m := range mappings {
		if ImageName(m.ImageRef) == name {
			return m.URL, SourceName
		}
	}

	if u, ok := Catalog[name]; ok {
		return u, SourceCatalog
	}
	return "", ""
}

// ImageName strips the tag and digest from an image reference and returns
// the short familiar name ("library/nginx:1.25" → "nginx"). Unparseable
// references fall back to cutting at the last colon after the final slash.
func ImageName(ref string) string {
	ref = strings.TrimSpace(ref)
	if named, err := reference.ParseNormalizedNamed(ref); err == nil {
		return reference.FamiliarName(named)
	}
	if i := strings.LastIndex(ref, "@"); i >= 0 {
		ref = ref[:i]
	}
	if i := strings.LastIndex(ref, ":"); i > strings.LastIndex(ref, "/") {
		ref = ref[:i]
	}
	return ref
}
