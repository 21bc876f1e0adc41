package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// VersionInfo describes a backend build.
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	BuildDate string `json:"buildDate,omitempty" yaml:"build_date,omitempty"`
	UpdateURL string `json:"updateUrl,omitempty" yaml:"update_url,omitempty"`
}

// LocalVersion returns the running backend's version.
func (c *Client) LocalVersion(ctx context.Context) (VersionInfo, error) {
	return c.version(ctx, "local")
}

// RemoteVersion returns the newest published backend version, as seen by
// the backend.
func (c *Client) RemoteVersion(ctx context.Context) (VersionInfo, error) {
	return c.version(ctx, "remote")
}

func (c *Client) version(ctx context.Context, kind string) (VersionInfo, error) {
	q := url.Values{}
	q.Set("type", kind)

	var raw json.RawMessage
	if err := c.get(ctx, "/api/version", q, &raw); err != nil {
		return VersionInfo{}, fmt.Errorf("failed to get %s version: %w", kind, err)
	}
	return parseVersion(raw), nil
}

// parseVersion accepts either an object or a bare version string.
func parseVersion(raw json.RawMessage) VersionInfo {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return VersionInfo{Version: s}
	}

	var obj struct {
		Version       string `json:"version"`
		RemoteVersion string `json:"remoteVersion"`
		BuildDate     string `json:"buildDate"`
		UpdateURL     string `json:"updateUrl"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return VersionInfo{}
	}
	v := obj.Version
	if v == "" {
		v = obj.RemoteVersion
	}
	return VersionInfo{Version: v, BuildDate: obj.BuildDate, UpdateURL: obj.UpdateURL}
}

var semverPattern = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)(?:-.+)?$`)

// UpdateAvailable reports whether latest is a newer major.minor.patch than
// current. Unparseable or unknown versions never report an update.
func UpdateAvailable(current, latest string) bool {
	cur, ok := parseSemver(current)
	if !ok {
		return false
	}
	lat, ok := parseSemver(latest)
	if !ok {
		return false
	}
	for i := range cur {
		if lat[i] != cur[i] {
			return lat[i] > cur[i]
		}
	}
	return false
}

func parseSemver(v string) ([3]int, bool) {
	m := semverPattern.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return [3]int{}, false
	}
	var out [3]int
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return [3]int{}, false
		}
		out[i] = n
	}
	return out, true
}
