package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ErrNoTask is returned when a 2xx task response carries no task object.
var ErrNoTask = errors.New("response contained no task")

// Task is the subset of the task detail the client cares about.
type Task struct {
	ID      string       `json:"id"`
	ToolID  string       `json:"toolId,omitempty"`
	Status  string       `json:"status"`
	Payload *TaskPayload `json:"payload,omitempty"`
}

// TaskPayload holds the input and result blobs of a task.
type TaskPayload struct {
	// Input is whatever the tool was started with.
	Input json.RawMessage `json:"input,omitempty"`

	// Output is the tool result, set once the task completed.
	Output json.RawMessage `json:"output,omitempty"`

	// Error is the worker's error message, set once the task failed.
	Error string `json:"error,omitempty"`
}

// taskResponse wraps GET /tasks/{id}.
type taskResponse struct {
	Task *Task `json:"task"`
}

// GetTask fetches the current state of a task.
//
// Parameters:
//   - ctx: Context for cancellation
//   - taskID: The task ID
//
// Returns:
//   - *Task: The task detail
//   - error: *APIError for non-2xx responses, ErrNoTask for an empty body,
//     or a wrapped transport error
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/tasks/"+url.PathEscape(taskID))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	var result taskResponse
	if err := parseResponse(resp, &result); err != nil {
		return nil, err
	}
	if result.Task == nil {
		return nil, ErrNoTask
	}
	return result.Task, nil
}

// OpenTaskStream opens the task's server-sent event stream.
//
// The returned body is live until the server closes it or ctx is cancelled;
// the caller must close it.
//
// Parameters:
//   - ctx: Context that bounds the whole stream, not just the handshake
//   - taskID: The task ID
//   - lastEventID: Resume cursor from a previous stream, or empty
//
// Returns:
//   - io.ReadCloser: The stream body
//   - error: *APIError for non-2xx responses, or a wrapped transport error
func (c *Client) OpenTaskStream(ctx context.Context, taskID, lastEventID string) (io.ReadCloser, error) {
	path := "/tasks/" + url.PathEscape(taskID) + "/stream"
	if lastEventID != "" {
		path += "?lastEventId=" + url.QueryEscape(lastEventID)
	}

	req, err := c.newRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSE request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if lastEventID != "" {
		req.Header.Set("Last-Event-ID", lastEventID)
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("SSE connection failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := newAPIError(resp)
		resp.Body.Close()
		return nil, fmt.Errorf("SSE connection failed with status %d: %w", resp.StatusCode, apiErr)
	}

	return resp.Body, nil
}
