package service

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/google/go-querystring/query"
	config "github.com/insightfinder/sampler-agent/configs"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const AgentName = "sampler-agent"

// sampleQuery identifies the polling agent to the remote endpoint.
type sampleQuery struct {
	Agent    string `url:"agent"`
	Instance string `url:"instance,omitempty"`
}

// HTTP fetches the value from a remote endpoint. The body is either a plain
// integer or a JSON document the value is extracted from with a gjson path.
type HTTP struct {
	url      string
	jsonPath string
	timeout  time.Duration
	params   url.Values
	client   *http.Client
}

func NewHTTP(cfg config.ServiceConfig) (*HTTP, error) {
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid service url %q: %w", cfg.URL, err)
	}

	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	hostname, _ := os.Hostname()
	params, err := query.Values(sampleQuery{Agent: AgentName, Instance: hostname})
	if err != nil {
		return nil, fmt.Errorf("failed to build request params: %w", err)
	}
	for key, value := range cfg.Params {
		params.Set(key, value)
	}

	logrus.Debugf("HTTP service endpoint: %s (json_path=%q, timeout=%v)", cfg.URL, cfg.JSONPath, timeout)

	return &HTTP{
		url:      cfg.URL,
		jsonPath: cfg.JSONPath,
		timeout:  timeout,
		params:   params,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

func (h *HTTP) Get(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var body string
	err := requests.URL(h.url).
		Client(h.client).
		Params(h.params).
		ToString(&body).
		Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to query %s: %w", h.url, err)
	}

	return ParseValue(body, h.jsonPath)
}

// ParseValue extracts an integer from a response body. With an empty
// jsonPath the whole body must be a decimal integer.
func ParseValue(body, jsonPath string) (int, error) {
	if jsonPath == "" {
		value, err := strconv.Atoi(strings.TrimSpace(body))
		if err != nil {
			return 0, fmt.Errorf("response is not an integer: %w", err)
		}
		return value, nil
	}

	if !gjson.Valid(body) {
		return 0, fmt.Errorf("response is not valid JSON")
	}

	result := gjson.Get(body, jsonPath)
	if !result.Exists() {
		return 0, fmt.Errorf("path %q not found in response", jsonPath)
	}

	switch result.Type {
	case gjson.Number:
		if result.Num != math.Trunc(result.Num) {
			return 0, fmt.Errorf("value at %q is not an integer: %s", jsonPath, result.Raw)
		}
		return int(result.Int()), nil
	case gjson.String:
		value, err := strconv.Atoi(strings.TrimSpace(result.Str))
		if err != nil {
			return 0, fmt.Errorf("value at %q is not an integer: %w", jsonPath, err)
		}
		return value, nil
	default:
		return 0, fmt.Errorf("value at %q is not a number: %s", jsonPath, result.Raw)
	}
}
