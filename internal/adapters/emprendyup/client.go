package emprendyup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"emprendyup-catalog/internal/adapters/emprendyup/dto"
	"emprendyup-catalog/internal/config"
	httpinfra "emprendyup-catalog/internal/infra/http"
	"emprendyup-catalog/internal/infra/retry"
	"emprendyup-catalog/internal/logging"
)

const (
	graphqlRetryMax       = 5
	graphqlRetryBaseDelay = 500 * time.Millisecond
	graphqlRetryMaxDelay  = 10 * time.Second

	variantFieldsSuffixed = "suffixed"
)

var tracer = otel.Tracer("emprendyup-catalog/internal/adapters/emprendyup")

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type operation struct {
	name     string
	mutation bool
}

// Client talks to the EmprendyUp GraphQL API.
type Client struct {
	config     config.APIConfig
	httpClient *http.Client
	logger     logging.LoggerService
	retry      retry.Policy
}

func NewClient(cfg config.APIConfig, httpClient *http.Client, logger logging.LoggerService) *Client {
	if httpClient == nil {
		httpClient = httpinfra.NewClient(cfg.Timeout)
	}
	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger,
		retry: retry.Policy{
			MaxAttempts: graphqlRetryMax + 1,
			BaseDelay:   graphqlRetryBaseDelay,
			MaxDelay:    graphqlRetryMaxDelay,
		},
	}
}

// WithRetryPolicy replaces the backoff used for throttled or failed requests.
func (c *Client) WithRetryPolicy(policy retry.Policy) *Client {
	c.retry = policy
	return c
}

func (c *Client) apiRequest(ctx context.Context, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := strings.TrimSpace(c.config.Token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newHTTPStatusError(resp.StatusCode, resp.Status, respBody)
	}

	return respBody, nil
}

func (c *Client) graphqlRequest(ctx context.Context, op operation, query string, variables map[string]any, out any) (err error) {
	ctx, span := tracer.Start(ctx, "emprendyup."+op.name)
	span.SetAttributes(
		attribute.String("graphql.operation.name", op.name),
		attribute.Bool("graphql.mutation", op.mutation),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, op.name)
		}
		span.End()
	}()

	endpoint := strings.TrimSpace(c.config.GraphQLURL)
	if endpoint == "" {
		return errors.New("emprendyup graphql url is empty")
	}

	bodyBytes, err := json.Marshal(graphQLRequest{
		Query:     strings.TrimSpace(query),
		Variables: variables,
	})
	if err != nil {
		c.logError("emprendyup graphql marshal failed", err)
		return err
	}

	attempts := c.retry.Attempts()
	for attempt := 0; attempt < attempts; attempt++ {
		last := attempt == attempts-1
		span.SetAttributes(attribute.Int("graphql.attempt", attempt+1))

		raw, err := c.apiRequest(ctx, endpoint, bytes.NewReader(bodyBytes))
		if err != nil {
			if !last && isRetryableHTTPError(err, op.mutation) {
				c.logWarning(fmt.Sprintf("emprendyup %s retry attempt=%d err=%v", op.name, attempt+1, err))
				if err := retry.Sleep(ctx, c.retry.Delay(attempt)); err != nil {
					return err
				}
				continue
			}
			c.logError(fmt.Sprintf("emprendyup %s request failed", op.name), err)
			return err
		}

		var resp dto.GraphQLResponse[json.RawMessage]
		if err := json.Unmarshal(raw, &resp); err != nil {
			c.logError("emprendyup graphql response unmarshal failed", err)
			return err
		}
		if len(resp.Errors) > 0 {
			if !last && isThrottleGraphQLError(resp.Errors) {
				if err := retry.Sleep(ctx, c.retry.Delay(attempt)); err != nil {
					return err
				}
				continue
			}
			err := &GraphQLError{Operation: op.name, Errors: resp.Errors}
			c.logError("emprendyup graphql response errors", err)
			return err
		}
		if out == nil {
			return nil
		}
		if len(resp.Data) == 0 || bytes.Equal(bytes.TrimSpace(resp.Data), []byte("null")) {
			return fmt.Errorf("emprendyup %s response missing data", op.name)
		}
		if err := json.Unmarshal(resp.Data, out); err != nil {
			c.logError("emprendyup graphql data unmarshal failed", err)
			return err
		}
		return nil
	}

	return fmt.Errorf("emprendyup %s retries exhausted", op.name)
}

func (c *Client) variantSelection() string {
	if c.config.VariantFields == variantFieldsSuffixed {
		return "id nameVariant typeVariant jsonData"
	}
	return "id name type jsonData"
}

func (c *Client) logError(msg string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.LogError(msg, err)
}

func (c *Client) logWarning(msg string) {
	if c.logger == nil {
		return
	}
	c.logger.LogWarning(msg)
}
