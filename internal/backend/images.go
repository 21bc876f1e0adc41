package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"nathanbeddoewebdev/dockctl/internal/domain"
)

// ListImages returns every image stored on the host.
func (c *Client) ListImages(ctx context.Context) ([]domain.Image, error) {
	var out []domain.Image
	if err := c.get(ctx, "/api/images", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	if out == nil {
		out = []domain.Image{}
	}
	return out, nil
}

// DeleteImage removes an image. force removes it even when containers still
// reference it.
func (c *Client) DeleteImage(ctx context.Context, id string, force bool) error {
	q := url.Values{}
	q.Set("force", strconv.FormatBool(force))

	path := "/api/image/" + url.PathEscape(id)
	if err := c.do(ctx, request{method: http.MethodDelete, path: path, query: q}, nil); err != nil {
		return fmt.Errorf("failed to delete image %s: %w", id, err)
	}
	return nil
}
