package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Login exchanges the backend's secret key for a session token.
func (c *Client) Login(ctx context.Context, secretKey string) (string, error) {
	form := url.Values{}
	form.Set("secretKey", secretKey)

	var out struct {
		JWT string `json:"jwt"`
	}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/auth", form: form}, &out); err != nil {
		return "", fmt.Errorf("failed to log in: %w", err)
	}
	if out.JWT == "" {
		return "", fmt.Errorf("failed to log in: backend returned no token")
	}
	return out.JWT, nil
}
