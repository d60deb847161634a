package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/skillgate/skillgate/pkg/domain"
)

// Client is a thin HTTP client for a running skillgate server, used by the
// approve/deny/pending subcommands so decisions reach the process that holds
// the pending executions.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient creates a client for the given base URL (e.g. http://localhost:8080).
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    http.DefaultClient,
	}
}

// Pending lists executions awaiting approval.
func (c *Client) Pending(ctx context.Context) ([]domain.SkillExecution, error) {
	var out []domain.SkillExecution
	err := c.do(ctx, http.MethodGet, "/approvals", nil, &out)
	return out, err
}

// Approve releases a pending execution.
func (c *Client) Approve(ctx context.Context, executionID string) error {
	return c.do(ctx, http.MethodPost, "/executions/"+executionID+"/approve", nil, nil)
}

// Deny rejects a pending execution.
func (c *Client) Deny(ctx context.Context, executionID string) error {
	return c.do(ctx, http.MethodPost, "/executions/"+executionID+"/deny", nil, nil)
}

// Execution fetches the current state of an execution.
func (c *Client) Execution(ctx context.Context, executionID string) (*domain.SkillExecution, error) {
	var out domain.SkillExecution
	if err := c.do(ctx, http.MethodGet, "/executions/"+executionID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Submit fires an execution and returns its id.
func (c *Client) Submit(ctx context.Context, skillID string, params map[string]any) (string, error) {
	body := map[string]any{"skill_id": skillID, "params": params}
	var out struct {
		ExecutionID string `json:"execution_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/executions", body, &out); err != nil {
		return "", err
	}
	return out.ExecutionID, nil
}

// History lists the audit trail, optionally filtered by skill id.
func (c *Client) History(ctx context.Context, skillID string) ([]domain.AuditEntry, error) {
	path := "/history"
	if skillID != "" {
		path += "?skill_id=" + skillID
	}
	var out []domain.AuditEntry
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Skills lists registered skill definitions.
func (c *Client) Skills(ctx context.Context) ([]domain.SkillDefinition, error) {
	var out []domain.SkillDefinition
	err := c.do(ctx, http.MethodGet, "/skills", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server: %s", apiErr.Error)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
