// Package remote implements policy.GraspPolicy against a grasp-policy
// server speaking JSON over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/menta2k/grasp-planner/pkg/policy"
	"github.com/menta2k/grasp-planner/pkg/rgbd"
	"github.com/menta2k/grasp-planner/pkg/types"
)

const (
	defaultTimeout = 5 * time.Minute

	// defaultThumbnailSpan is the side length of the client-side crop used
	// when the server response carries no thumbnail.
	defaultThumbnailSpan = 96
)

// Client calls a remote grasp-policy server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a policy client for the given server URL.
func NewClient(serverURL string) (*Client, error) {
	if serverURL == "" {
		serverURL = "http://localhost:5000"
	}
	return &Client{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}, nil
}

// SetTimeout overrides the request timeout. Zero restores the default.
func (c *Client) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = defaultTimeout
	}
	c.httpClient.Timeout = d
}

type planRequest struct {
	FrameID    string            `json:"frame_id"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	Color      string            `json:"color_png"`
	Depth      string            `json:"depth_png"`
	Segmask    string            `json:"segmask_png"`
	Intrinsics intrinsicsPayload `json:"intrinsics"`
}

type intrinsicsPayload struct {
	Fx   float64 `json:"fx"`
	Fy   float64 `json:"fy"`
	Cx   float64 `json:"cx"`
	Cy   float64 `json:"cy"`
	Skew float64 `json:"skew"`
}

type planResponse struct {
	Status string        `json:"status"` // "ok" or "no_valid_grasp"
	Grasp  *graspPayload `json:"grasp,omitempty"`
}

type graspPayload struct {
	Type      string      `json:"type"`
	QValue    float64     `json:"q_value"`
	CenterX   float64     `json:"center_x"`
	CenterY   float64     `json:"center_y"`
	Angle     float64     `json:"angle"`
	Depth     float64     `json:"depth"`
	Pose      *types.Pose `json:"pose,omitempty"`
	Thumbnail string      `json:"thumbnail_png,omitempty"`
}

// Evaluate sends the scene to the policy server and converts the reply into
// a grasp candidate. A "no_valid_grasp" status maps to
// policy.ErrNoValidGrasp.
func (c *Client) Evaluate(ctx context.Context, scene *rgbd.SceneState) (*policy.Candidate, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	payload, err := encodeScene(scene)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scene: %w", err)
	}

	respBody, err := c.sendRequest(ctx, "/v1/grasps/plan", payload)
	if err != nil {
		return nil, fmt.Errorf("policy request failed: %w", err)
	}

	var resp planResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse policy response: %w", err)
	}

	if resp.Status == "no_valid_grasp" {
		return nil, policy.ErrNoValidGrasp
	}
	if resp.Grasp == nil {
		return nil, fmt.Errorf("policy response carries no grasp (status %q)", resp.Status)
	}

	return c.toCandidate(resp.Grasp, scene)
}

func (c *Client) toCandidate(g *graspPayload, scene *rgbd.SceneState) (*policy.Candidate, error) {
	cand := &policy.Candidate{
		Type:    graspTypeFromWire(g.Type),
		Quality: g.QValue,
		CenterX: g.CenterX,
		CenterY: g.CenterY,
		Angle:   g.Angle,
		Depth:   g.Depth,
	}

	if g.Pose != nil {
		cand.Pose = *g.Pose
	} else {
		// Servers that only rank in image space leave the pose out;
		// deproject the grasp center through the camera model instead.
		pos, err := scene.Intrinsics().Deproject(g.CenterX, g.CenterY, g.Depth)
		if err != nil {
			return nil, fmt.Errorf("cannot derive grasp pose: %w", err)
		}
		cand.Pose = types.Pose{Position: pos, Orientation: types.Identity()}
	}

	if g.Thumbnail != "" {
		raw, err := base64.StdEncoding.DecodeString(g.Thumbnail)
		if err != nil {
			return nil, fmt.Errorf("failed to decode thumbnail: %w", err)
		}
		thumb, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to decode thumbnail: %w", err)
		}
		cand.Thumbnail = thumb
	} else {
		cand.Thumbnail = cropThumbnail(scene.Image(), g.CenterX, g.CenterY, defaultThumbnailSpan)
	}

	return cand, nil
}

// graspTypeFromWire maps the server discriminant. Unknown values are passed
// through unmapped so the response marshaller reports the contract break.
func graspTypeFromWire(s string) types.GraspType {
	switch s {
	case "parallel_jaw":
		return types.ParallelJaw
	case "suction":
		return types.Suction
	default:
		return types.GraspType(-1)
	}
}

// cropThumbnail extracts a span x span window around the grasp center,
// clipped to the image bounds.
func cropThumbnail(im *rgbd.Image, cx, cy float64, span int) image.Image {
	half := span / 2
	rect := image.Rect(int(cx)-half, int(cy)-half, int(cx)+half, int(cy)+half)
	rect = rect.Intersect(im.Color.Pix.Bounds())
	return imaging.Crop(im.Color.Pix, rect)
}

func (c *Client) sendRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
