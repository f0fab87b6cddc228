package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/xypp3/leetcode-battleroyal/internal/model"
)

// Judge is the external code-execution boundary. The server hands over the
// submission and test cases and consumes only the pass count; it never
// inspects or executes code itself.
type Judge interface {
	Run(ctx context.Context, question *model.Question, code string) (int, error)
}

// JudgeClient calls an external judge service over HTTP.
type JudgeClient struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

// NewJudgeClient creates a new judge client
func NewJudgeClient(baseURL string) *JudgeClient {
	return &JudgeClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
	}
}

// judgeRequest is the payload sent to the judge service
type judgeRequest struct {
	FunctionName string           `json:"functionName"`
	Parameters   []string         `json:"parameters"`
	Code         string           `json:"code"`
	TestCases    []model.TestCase `json:"testCases"`
}

// judgeResponse is the judge service's verdict
type judgeResponse struct {
	Passed int `json:"passed"`
	Total  int `json:"total"`
}

// Run submits the code against the question's test cases and returns how
// many passed.
func (c *JudgeClient) Run(ctx context.Context, question *model.Question, code string) (int, error) {
	payload, err := json.Marshal(judgeRequest{
		FunctionName: question.FunctionName,
		Parameters:   question.Parameters,
		Code:         code,
		TestCases:    question.TestCases,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to encode judge request: %w", err)
	}

	respBody, err := c.doRequest(ctx, payload)
	if err != nil {
		return 0, err
	}

	var verdict judgeResponse
	if err := json.Unmarshal(respBody, &verdict); err != nil {
		return 0, fmt.Errorf("failed to parse judge response: %w", err)
	}

	return verdict.Passed, nil
}

// doRequest performs the HTTP request with retry on transient failures.
func (c *JudgeClient) doRequest(ctx context.Context, payload []byte) ([]byte, error) {
	url := c.baseURL + "/run"

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			log.Printf("[Judge] retry %d/%d in %v", attempt, c.maxRetries, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Printf("[Judge] request failed (attempt %d): %v", attempt+1, err)
			lastErr = err
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			log.Printf("[Judge] transient error %d: %s", resp.StatusCode, string(respBody))
			lastErr = fmt.Errorf("judge error %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("judge error %d: %s", resp.StatusCode, string(respBody))
		}

		return respBody, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
