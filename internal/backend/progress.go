package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"nathanbeddoewebdev/dockctl/internal/domain"
	"nathanbeddoewebdev/dockctl/internal/progress"
)

// Progress queries a background task. Unlike the other endpoints, a
// non-success envelope code is not an error here: it is part of the reply
// and is interpreted by progress.Normalize. Only transport failures and
// auth failures are returned as errors.
func (c *Client) Progress(ctx context.Context, handle domain.TaskHandle) (progress.Response, error) {
	path := "/api/progress/" + url.PathEscape(string(handle))
	env, _, err := c.send(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return progress.Response{}, fmt.Errorf("failed to query task %s: %w", handle, err)
	}

	resp := progress.Response{
		Code:   int(env.Code),
		Msg:    env.Msg,
		Status: env.Status,
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) > 0 && data[0] == '{' {
		var m map[string]any
		if err := json.Unmarshal(data, &m); err == nil {
			resp.Data = m
		}
	} else if len(data) > 0 && data[0] == '"' {
		// Some versions send the progress line as a bare string.
		var s string
		if err := json.Unmarshal(data, &s); err == nil && s != "" {
			resp.Data = map[string]any{"progress": s}
		}
	}
	return resp, nil
}
