// Package graspplanner is the request-handling front end for a robotic
// grasp-planning service.
//
// Given registered color and depth sensor images plus optional bounding-box
// or segmentation-mask constraints, the planner validates the inputs,
// composes one authoritative region of interest, assembles an immutable
// scene state and hands it to an external grasp-selection policy exactly
// once. The chosen grasp is marshalled into a transport-ready response and
// the pose alone is published to a best-effort monitoring channel.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//		"os"
//
//		graspplanner "github.com/menta2k/grasp-planner"
//		"github.com/menta2k/grasp-planner/pkg/camera"
//		"github.com/menta2k/grasp-planner/pkg/remote"
//	)
//
//	func main() {
//		policyClient, err := remote.NewClient("http://localhost:5000")
//		if err != nil {
//			log.Fatal(err)
//		}
//		planner := graspplanner.New(policyClient)
//
//		color, _ := os.ReadFile("color.png")
//		depth, _ := os.ReadFile("depth.png")
//
//		resp, err := planner.PlanGrasp(context.Background(), graspplanner.PlanRequest{
//			Color: color,
//			Depth: depth,
//			Camera: camera.RawCalibration{
//				FrameID: "camera_link",
//				K:       [9]float64{525, 0, 319.5, 0, 525, 239.5, 0, 0, 1},
//				Width:   640,
//				Height:  480,
//			},
//		})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		log.Printf("%s grasp at (%.1f, %.1f) quality %.2f",
//			resp.Type, resp.CenterX, resp.CenterY, resp.Quality)
//	}
//
// The pipeline runs in fixed order for all three entry points: ingest
// (decode + shape and size validation), region-of-interest composition,
// inpainting and fusion, a single policy evaluation, response marshalling.
// Each request owns its entities; concurrent requests share no state.
package graspplanner

import (
	"github.com/menta2k/grasp-planner/internal/config"
	"github.com/menta2k/grasp-planner/pkg/camera"
	"github.com/menta2k/grasp-planner/pkg/ingest"
	"github.com/menta2k/grasp-planner/pkg/inpaint"
	"github.com/menta2k/grasp-planner/pkg/notify"
	"github.com/menta2k/grasp-planner/pkg/policy"
)

// Version of the grasp planner library
const Version = "1.0.0"

// Planner orchestrates the grasp-planning request pipeline around an
// external grasp-selection policy.
type Planner struct {
	ingestor  *ingest.Ingestor
	inpainter inpaint.Inpainter
	policy    policy.GraspPolicy
	publisher notify.Publisher
	rescale   float64
}

// New creates a Planner with default configuration around the given policy.
func New(p policy.GraspPolicy) *Planner {
	return NewWithConfig(config.Default(), p, nil)
}

// NewWithConfig creates a Planner with custom configuration. The publisher
// may be nil, in which case no pose notifications are sent.
func NewWithConfig(cfg *config.Config, p policy.GraspPolicy, pub notify.Publisher) *Planner {
	return &Planner{
		ingestor: ingest.New(ingest.Config{
			CropWidth:  cfg.Policy.CropWidth,
			CropHeight: cfg.Policy.CropHeight,
		}),
		inpainter: inpaint.NewPyramid(),
		policy:    p,
		publisher: pub,
		rescale:   cfg.Inpaint.RescaleFactor,
	}
}

// SetInpainter replaces the default inpainting routine.
func (p *Planner) SetInpainter(in inpaint.Inpainter) {
	p.inpainter = in
}

// PlanRequest carries the transport-encoded inputs shared by all entry
// points: color and depth buffers plus the raw camera calibration.
type PlanRequest struct {
	Color  []byte
	Depth  []byte
	Camera camera.RawCalibration
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
