// Package notify publishes planned grasp poses for external monitoring.
// Publishing is best effort: a failed publish is reported to the caller so
// it can be logged, but never aborts a plan request.
package notify

import (
	"log"
	"time"

	"github.com/menta2k/grasp-planner/pkg/types"
)

// PoseMessage is the wire form broadcast to monitoring clients: the grasp
// pose alone, stamped with the planning time and the camera frame.
type PoseMessage struct {
	Pose    types.Pose `json:"pose"`
	Stamp   time.Time  `json:"stamp"`
	FrameID string     `json:"frame_id"`
}

// Publisher delivers pose messages to a monitoring channel.
type Publisher interface {
	Publish(msg PoseMessage) error
}

// LogPublisher writes poses to the process log. Useful when no monitoring
// endpoint is deployed.
type LogPublisher struct{}

func (LogPublisher) Publish(msg PoseMessage) error {
	log.Printf("planned grasp pose frame=%s position=(%.4f, %.4f, %.4f)",
		msg.FrameID, msg.Pose.Position.X, msg.Pose.Position.Y, msg.Pose.Position.Z)
	return nil
}
