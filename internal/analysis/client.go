package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"facefortune/internal/types"
)

// NoFaceSentinel is the reserved features value the extraction endpoint
// returns when it could not find a face in the photo. It is a distinguished
// failure signal, never a valid feature payload.
const NoFaceSentinel = "again"

// ErrNoFace is returned by ExtractFeatures when the photo contains no
// recognizable face. It is terminal: the pipeline must not retry it.
var ErrNoFace = errors.New("no face was recognized in the photo")

// RemoteError is a transport or server-reported failure from one of the
// analysis endpoints. Status is 0 for pure transport failures.
type RemoteError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("analysis endpoint %s failed (HTTP %d): %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("analysis endpoint %s unreachable: %s", e.Endpoint, e.Message)
}

// Client wraps the three remote analysis endpoints with typed
// request/response operations. Each call is a single request; retry policy
// belongs to the caller.
type Client struct {
	base string
	http *http.Client
}

// NewClient builds a client for the given API base URL.
func NewClient(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 90 * time.Second},
	}
}

// Wire shapes. Every endpoint may answer with an error field instead of its
// payload; a non-empty error aborts the stage.
type featuresResponse struct {
	Features string `json:"features"`
	Error    string `json:"error"`
}

type miniRequest struct {
	Feature string `json:"feature"`
}

type miniResponse struct {
	types.MiniAnalysis
	Error string `json:"error"`
}

type scoreResponse struct {
	types.ScoreAnalysis
	Error string `json:"error"`
}

// ExtractFeatures uploads the photo to the feature extraction endpoint.
// The sentinel "no face" answer becomes ErrNoFace so callers can surface a
// message distinct from generic failures.
func (c *Client) ExtractFeatures(ctx context.Context, photo types.Photo) (types.FeatureSet, error) {
	const endpoint = "/analyze/features/"

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	name := photo.Name
	if name == "" {
		name = "face.jpg"
	}
	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(photo.Data); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}

	var resp featuresResponse
	if err := c.post(ctx, endpoint, form.FormDataContentType(), body, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", &RemoteError{Endpoint: endpoint, Message: resp.Error}
	}

	features := strings.TrimSpace(resp.Features)
	if features == NoFaceSentinel {
		return "", ErrNoFace
	}
	if features == "" {
		return "", &RemoteError{Endpoint: endpoint, Message: "empty features payload"}
	}
	return types.FeatureSet(features), nil
}

// AnalyzeMini expands a feature set into the three detail sections.
func (c *Client) AnalyzeMini(ctx context.Context, features types.FeatureSet) (types.MiniAnalysis, error) {
	const endpoint = "/analyze/wealth/mini"

	payload, err := json.Marshal(miniRequest{Feature: string(features)})
	if err != nil {
		return types.MiniAnalysis{}, fmt.Errorf("failed to encode mini request: %w", err)
	}

	var resp miniResponse
	if err := c.post(ctx, endpoint, "application/json", bytes.NewReader(payload), &resp); err != nil {
		return types.MiniAnalysis{}, err
	}
	if resp.Error != "" {
		return types.MiniAnalysis{}, &RemoteError{Endpoint: endpoint, Message: resp.Error}
	}
	// Absent detail fields decode to "", matching the downstream contract.
	return resp.MiniAnalysis, nil
}

// AnalyzeScore turns the three detail sections into a score and summary.
func (c *Client) AnalyzeScore(ctx context.Context, mini types.MiniAnalysis) (types.ScoreAnalysis, error) {
	const endpoint = "/analyze/wealth/score"

	payload, err := json.Marshal(mini)
	if err != nil {
		return types.ScoreAnalysis{}, fmt.Errorf("failed to encode score request: %w", err)
	}

	var resp scoreResponse
	if err := c.post(ctx, endpoint, "application/json", bytes.NewReader(payload), &resp); err != nil {
		return types.ScoreAnalysis{}, err
	}
	if resp.Error != "" {
		return types.ScoreAnalysis{}, &RemoteError{Endpoint: endpoint, Message: resp.Error}
	}
	return resp.ScoreAnalysis, nil
}

// post issues one request and decodes the JSON answer into out. Non-2xx
// statuses and malformed bodies become RemoteErrors.
func (c *Client) post(ctx context.Context, endpoint, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+endpoint, body)
	if err != nil {
		return &RemoteError{Endpoint: endpoint, Message: err.Error()}
	}
	req.Header.Set("Content-Type", contentType)

	res, err := c.http.Do(req)
	if err != nil {
		return &RemoteError{Endpoint: endpoint, Message: err.Error()}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return &RemoteError{Endpoint: endpoint, Status: res.StatusCode, Message: err.Error()}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &RemoteError{Endpoint: endpoint, Status: res.StatusCode, Message: strings.TrimSpace(string(data))}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &RemoteError{Endpoint: endpoint, Status: res.StatusCode, Message: "malformed response: " + err.Error()}
	}
	return nil
}
