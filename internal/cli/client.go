package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// StatsResponse — счётчики планировщика из API.
type StatsResponse struct {
	Pending          int     `json:"pending"`
	Ready            int     `json:"ready"`
	Leased           int     `json:"leased"`
	Completed        int     `json:"completed"`
	Failed           int     `json:"failed"`
	Expired          int     `json:"expired"`
	Total            int     `json:"total"`
	ActiveWorkers    int     `json:"active_workers"`
	QueueDepth       int     `json:"queue_depth"`
	AvgCompletionSec float64 `json:"avg_completion_sec"`
}

// TaskResponse — task из API.
type TaskResponse struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Description       string         `json:"description,omitempty"`
	Category          string         `json:"category"`
	Priority          int            `json:"priority"`
	EffectivePriority int            `json:"effective_priority"`
	Status            string         `json:"status"`
	Dependencies      []string       `json:"dependencies,omitempty"`
	Payload           map[string]any `json:"payload,omitempty"`
	Schedule          string         `json:"schedule,omitempty"`
	RetryCount        int            `json:"retry_count"`
	MaxRetries        int            `json:"max_retries"`
	LeaseOwner        string         `json:"lease_owner,omitempty"`
	LastError         string         `json:"last_error,omitempty"`
	CreatedAt         string         `json:"created_at"`
	ExpiresAt         string         `json:"expires_at,omitempty"`
	FinishedAt        string         `json:"finished_at,omitempty"`
}

// TaskDetailResponse — task с зависимостями из API.
type TaskDetailResponse struct {
	TaskResponse
	Waiting    []string `json:"waiting"`
	Dependents []string `json:"dependents"`
	Blocked    bool     `json:"blocked"`
	Queued     bool     `json:"queued"`
	NextRun    string   `json:"next_run,omitempty"`
}

// LeaseResponse — lease из API.
type LeaseResponse struct {
	TaskID     string  `json:"task_id"`
	WorkerID   string  `json:"worker_id"`
	AcquiredAt string  `json:"acquired_at"`
	HeldSec    float64 `json:"held_sec"`
}

// SnapshotCountsResponse — счётчики последнего snapshot из API.
type SnapshotCountsResponse struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

// ListTasksOpts — параметры фильтрации tasks.
type ListTasksOpts struct {
	Status   string
	Category string
	Limit    int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Taskmill API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Stats возвращает счётчики планировщика.
func (c *Client) Stats() (*StatsResponse, error) {
	var stats StatsResponse
	err := c.get("/api/v1/stats", &stats)
	return &stats, err
}

// ListTasks возвращает список tasks с фильтрацией.
func (c *Client) ListTasks(opts ListTasksOpts) ([]TaskResponse, error) {
	params := url.Values{}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Category != "" {
		params.Set("category", opts.Category)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	var tasks []TaskResponse
	err := c.list("/api/v1/tasks", params, &tasks)
	return tasks, err
}

// GetTask возвращает task по ID.
func (c *Client) GetTask(id string) (*TaskDetailResponse, error) {
	var task TaskDetailResponse
	err := c.get("/api/v1/tasks/"+url.PathEscape(id), &task)
	return &task, err
}

// ListLeases возвращает активные lease. Пустой workerID — всех воркеров.
func (c *Client) ListLeases(workerID string) ([]LeaseResponse, error) {
	path := "/api/v1/leases"
	if workerID != "" {
		path = "/api/v1/workers/" + url.PathEscape(workerID) + "/leases"
	}

	var leases []LeaseResponse
	err := c.list(path, nil, &leases)
	return leases, err
}

// SnapshotCounts возвращает счётчики последнего snapshot в БД.
func (c *Client) SnapshotCounts() (*SnapshotCountsResponse, error) {
	var counts SnapshotCountsResponse
	err := c.get("/api/v1/snapshot", &counts)
	return &counts, err
}

// ListSnapshotTasks возвращает task из snapshot с заданным статусом.
func (c *Client) ListSnapshotTasks(status string, limit int) ([]TaskResponse, error) {
	params := url.Values{}
	params.Set("status", status)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var tasks []TaskResponse
	err := c.list("/api/v1/snapshot/tasks", params, &tasks)
	return tasks, err
}

// GetSnapshotTask возвращает task из snapshot по ID.
func (c *Client) GetSnapshotTask(id string) (*TaskResponse, error) {
	var task TaskResponse
	err := c.get("/api/v1/snapshot/tasks/"+url.PathEscape(id), &task)
	return &task, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	resp, err := c.do(path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(dr.Data, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) do(path string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
