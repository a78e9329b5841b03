package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

const imagesPath = "/upload/images"

// REST posts images to the upload service as multipart form data.
type REST struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewREST(baseURL, token string, httpClient *http.Client) *REST {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &REST{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      strings.TrimSpace(token),
		httpClient: httpClient,
	}
}

func (r *REST) Upload(ctx context.Context, file File) (Result, error) {
	if file.Body == nil {
		return Result{}, errors.New("upload: empty file body")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, file.Name))
	header.Set("Content-Type", file.ContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return Result{}, err
	}
	if _, err := io.Copy(part, file.Body); err != nil {
		return Result{}, fmt.Errorf("upload: read %s: %w", file.Name, err)
	}
	if err := writer.Close(); err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+imagesPath, &body)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("upload request failed: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	results, err := parseResults(raw)
	if err != nil {
		return Result{}, err
	}
	res := results[0]
	if res.URL == "" {
		res.URL = r.baseURL + "/" + strings.TrimLeft(res.Key, "/")
	}
	return res, nil
}

type resultDTO struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Location string `json:"location"`
}

// parseResults accepts a single object, an array, or either of those wrapped
// in a "data", "files" or "images" field.
func parseResults(raw []byte) ([]Result, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("upload response is empty")
	}

	var items []resultDTO
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("upload response: %w", err)
		}
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, fmt.Errorf("upload response: %w", err)
		}
		for _, field := range []string{"data", "files", "images"} {
			if inner, ok := envelope[field]; ok {
				return parseResults(inner)
			}
		}
		var item resultDTO
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("upload response: %w", err)
		}
		items = []resultDTO{item}
	case '"':
		var url string
		if err := json.Unmarshal(raw, &url); err != nil {
			return nil, fmt.Errorf("upload response: %w", err)
		}
		items = []resultDTO{{URL: url}}
	default:
		return nil, fmt.Errorf("upload response: unexpected body %q", string(raw))
	}

	out := make([]Result, 0, len(items))
	for _, item := range items {
		url := strings.TrimSpace(item.URL)
		if url == "" {
			url = strings.TrimSpace(item.Location)
		}
		key := strings.TrimSpace(item.Key)
		if key == "" && url == "" {
			continue
		}
		if url == "" && IsRemote(key) {
			url = key
		}
		out = append(out, Result{Key: key, URL: url})
	}
	if len(out) == 0 {
		return nil, errors.New("upload response has no key or url")
	}
	return out, nil
}
