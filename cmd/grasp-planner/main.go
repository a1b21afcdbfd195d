package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	graspplanner "github.com/menta2k/grasp-planner"
	"github.com/menta2k/grasp-planner/internal/config"
	"github.com/menta2k/grasp-planner/internal/utils"
	"github.com/menta2k/grasp-planner/pkg/camera"
	"github.com/menta2k/grasp-planner/pkg/notify"
	"github.com/menta2k/grasp-planner/pkg/remote"
	"github.com/menta2k/grasp-planner/pkg/types"
)

func main() {
	var colorPath, depthPath, segmaskPath, bbox string
	var cfgPath, url, profile, outDir, notifyAddr, frame string
	var fx, fy, cx, cy float64
	var ext string
	var quality int
	var lossless bool

	flag.StringVar(&colorPath, "color", "", "color image path (jpg/png/webp)")
	flag.StringVar(&depthPath, "depth", "", "depth image path (16-bit grayscale PNG, millimeters)")
	flag.StringVar(&segmaskPath, "segmask", "", "optional segmentation mask path")
	flag.StringVar(&bbox, "bbox", "", "optional bounding box as minX,minY,maxX,maxY (pixels)")
	flag.StringVar(&cfgPath, "config", "", "config file path (JSON)")
	flag.StringVar(&url, "url", "", "policy server URL (overrides config)")
	flag.StringVar(&profile, "policy", "", "named policy profile from the config (e.g. parallel_jaw, suction)")
	flag.StringVar(&outDir, "out", "out", "output directory")
	flag.StringVar(&notifyAddr, "notify", "", "serve pose notifications on this address (e.g. :8089)")
	flag.StringVar(&frame, "frame", "camera_link", "camera frame id")
	flag.Float64Var(&fx, "fx", 525, "focal length x (pixels)")
	flag.Float64Var(&fy, "fy", 525, "focal length y (pixels)")
	flag.Float64Var(&cx, "cx", 319.5, "principal point x (pixels)")
	flag.Float64Var(&cy, "cy", 239.5, "principal point y (pixels)")
	flag.StringVar(&ext, "ext", "png", "thumbnail output format: jpg|png|webp")
	flag.IntVar(&quality, "quality", 90, "JPEG/WebP thumbnail quality (1-100)")
	flag.BoolVar(&lossless, "lossless", false, "WebP thumbnail lossless mode")

	flag.Parse()
	if colorPath == "" || depthPath == "" {
		log.Fatalf("usage: %s -color color.png -depth depth.png [-segmask mask.png | -bbox minX,minY,maxX,maxY] [-url policy_url]",
			filepath.Base(os.Args[0]))
	}
	if segmaskPath != "" && bbox != "" {
		log.Fatalf("use either -segmask or -bbox, not both")
	}

	cfg := config.Default()
	if cfgPath != "" {
		if !utils.FileExists(cfgPath) {
			log.Fatalf("Config file not found: %s", cfgPath)
		}
		loaded, err := config.LoadFromFile(cfgPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		if err := loaded.Validate(); err != nil {
			log.Fatalf("Invalid config: %v", err)
		}
		cfg = loaded
	}
	backend, err := cfg.Policy.ResolveBackend(profile)
	if err != nil {
		log.Fatalf("Invalid -policy: %v", err)
	}
	cfg.Policy.Backend = backend
	if url != "" {
		cfg.Policy.Backend = url
	}

	if err := utils.EnsureDir(outDir); err != nil {
		log.Fatal(err)
	}

	colorBuf := readImageFile(colorPath)
	depthBuf := readImageFile(depthPath)

	policyClient, err := remote.NewClient(cfg.Policy.Backend)
	if err != nil {
		log.Fatalf("Failed to create policy client: %v", err)
	}
	if cfg.Policy.TimeoutSec > 0 {
		policyClient.SetTimeout(time.Duration(cfg.Policy.TimeoutSec) * time.Second)
	}

	var publisher notify.Publisher = notify.LogPublisher{}
	if notifyAddr != "" {
		hub := notify.NewHub()
		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		go func() {
			if err := http.ListenAndServe(notifyAddr, mux); err != nil {
				log.Printf("notify server stopped: %v", err)
			}
		}()
		log.Printf("serving pose notifications on ws://%s/ws", notifyAddr)
		publisher = hub
	}

	planner := graspplanner.NewWithConfig(cfg, policyClient, publisher)

	req := graspplanner.PlanRequest{
		Color: colorBuf,
		Depth: depthBuf,
		Camera: camera.RawCalibration{
			FrameID: frame,
			K:       [9]float64{fx, 0, cx, 0, fy, cy, 0, 0, 1},
		},
	}
	if dim, _, err := image.DecodeConfig(bytes.NewReader(colorBuf)); err == nil {
		req.Camera.Width = dim.Width
		req.Camera.Height = dim.Height
	}

	ctx := context.Background()
	var resp *types.GraspResponse

	switch {
	case segmaskPath != "":
		resp, err = planner.PlanGraspSegmask(ctx, req, readImageFile(segmaskPath))
	case bbox != "":
		box, parseErr := parseBoundingBox(bbox)
		if parseErr != nil {
			log.Fatalf("Invalid -bbox: %v", parseErr)
		}
		resp, err = planner.PlanGraspBoundingBox(ctx, req, box)
	default:
		resp, err = planner.PlanGrasp(ctx, req)
	}
	if err != nil {
		log.Fatalf("Grasp planning failed: %v", err)
	}

	log.Printf("planned %s grasp: center=(%.1f, %.1f) angle=%.3f depth=%.3fm q=%.3f",
		resp.Type, resp.CenterX, resp.CenterY, resp.Angle, resp.Depth, resp.Quality)
	log.Printf("pose: position=(%.4f, %.4f, %.4f) frame=%s",
		resp.Pose.Position.X, resp.Pose.Position.Y, resp.Pose.Position.Z, frame)

	js, _ := json.MarshalIndent(resp, "", "  ")
	jsonPath := filepath.Join(outDir, "grasp.json")
	if err := os.WriteFile(jsonPath, js, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", jsonPath, err)
	}
	log.Printf("wrote %s", jsonPath)

	if resp.Thumbnail != nil {
		thumbPath := filepath.Join(outDir, fmt.Sprintf("thumbnail.%s", strings.ToLower(ext)))
		if err := saveImage(resp.Thumbnail, thumbPath, ext, quality, lossless); err != nil {
			log.Printf("thumbnail save failed: %v", err)
		} else {
			log.Printf("wrote %s", thumbPath)
		}
	}
}

func readImageFile(path string) []byte {
	if !utils.IsImageFile(path) {
		log.Printf("warning: %s does not look like an image file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	return data
}

// parseBoundingBox parses "minX,minY,maxX,maxY".
func parseBoundingBox(s string) (types.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return types.BoundingBox{}, fmt.Errorf("expected 4 comma-separated values, got %d", len(parts))
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return types.BoundingBox{}, fmt.Errorf("value %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return types.BoundingBox{MinX: vals[0], MinY: vals[1], MaxX: vals[2], MaxY: vals[3]}, nil
}

func saveImage(img image.Image, path, format string, quality int, lossless bool) error {
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		return webp.Encode(f, img, opts)
	case "png":
		return imaging.Save(img, path)
	default: // jpg/jpeg
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
}
