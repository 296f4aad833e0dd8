package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lamim/extract-api-bench/internal/dataset"
)

// maxSnippetLen bounds the response body excerpt carried in http error
// messages so report rows stay readable.
const maxSnippetLen = 200

// Client issues extraction requests against the document extraction API
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new extraction client. The API key is read from
// the environment variable named by apiKeyEnv; its absence is a
// configuration error surfaced before any request is made.
func NewClient(baseURL, apiKeyEnv string, timeout time.Duration) (*Client, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%s environment variable not set", apiKeyEnv)
	}

	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Extract uploads the case's input artifact for the given document type
// and returns the extracted fields. Failures never escape as errors:
// they are categorized onto the Result so one bad case cannot abort a
// batch. Latency is recorded on every outcome.
func (c *Client) Extract(ctx context.Context, documentType string, cs dataset.Case) Result {
	start := time.Now()
	fail := func(kind ErrorKind, status int, message string) Result {
		LogError(ctx, message, string(kind), "case "+cs.ID)
		return Result{
			CaseID:  cs.ID,
			Err:     &Error{Kind: kind, Status: status, Message: message},
			Latency: time.Since(start),
		}
	}

	// #nosec G304 - input paths come from the validated dataset manifest
	data, err := os.ReadFile(cs.Input)
	if err != nil {
		return fail(KindNetwork, 0, fmt.Sprintf("failed to read input file: %v", err))
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("uploaded_file", filepath.Base(cs.Input))
	if err != nil {
		return fail(KindNetwork, 0, fmt.Sprintf("failed to build multipart body: %v", err))
	}
	if _, err := part.Write(data); err != nil {
		return fail(KindNetwork, 0, fmt.Sprintf("failed to build multipart body: %v", err))
	}
	if err := writer.Close(); err != nil {
		return fail(KindNetwork, 0, fmt.Sprintf("failed to build multipart body: %v", err))
	}
	bodySize := buf.Len()

	url := c.baseURL + "/api/extract/" + documentType

	traceCtx, timing, finalizeTrace := NewTraceContext(ctx)
	defer finalizeTrace()

	req, err := http.NewRequestWithContext(traceCtx, "POST", url, &buf)
	if err != nil {
		return fail(KindNetwork, 0, fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-API-KEY", c.apiKey)

	LogRequest(ctx, "POST", url, map[string]string{
		"Content-Type": writer.FormDataContentType(),
		"X-API-KEY":    "***",
	}, cs.Input, bodySize, timing)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(KindNetwork, 0, fmt.Sprintf("request failed: %v", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(KindNetwork, 0, fmt.Sprintf("failed to read response: %v", err))
	}

	LogResponse(ctx, resp.StatusCode, HeadersToMap(resp.Header), string(respBody), time.Since(start), timing)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(KindHTTP, resp.StatusCode, fmt.Sprintf("API returned status %d: %s", resp.StatusCode, snippet(respBody)))
	}

	var envelope extractResponse
	dec := json.NewDecoder(bytes.NewReader(respBody))
	dec.UseNumber()
	if err := dec.Decode(&envelope); err != nil {
		return fail(KindParse, 0, fmt.Sprintf("failed to unmarshal response: %v", err))
	}

	return Result{
		CaseID:  cs.ID,
		Fields:  stringifyPayload(envelope.Data),
		Latency: time.Since(start),
	}
}

// stringifyPayload flattens the response payload into the string field
// map the evaluators consume. Numbers keep their literal representation
// and null values are dropped.
func stringifyPayload(data map[string]interface{}) map[string]string {
	fields := make(map[string]string, len(data))
	for key, value := range data {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			fields[key] = v
		case json.Number:
			fields[key] = v.String()
		case bool:
			fields[key] = strconv.FormatBool(v)
		default:
			fields[key] = fmt.Sprintf("%v", v)
		}
	}
	return fields
}

func snippet(body []byte) string {
	s := string(body)
	if len(s) <= maxSnippetLen {
		return s
	}
	return s[:maxSnippetLen] + "..."
}

// Response types
type extractResponse struct {
	Data map[string]interface{} `json:"data"`
}
