package contracts

import "encoding/json"

// ReportEvent is published to the broker after a successful remote write.
// Key: {build_id}
type ReportEvent struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	BuildID   string          `json:"build_id"`
	Timestamp string          `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// ExecutionSavedPayload is the payload of an EventExecutionSaved event.
type ExecutionSavedPayload struct {
	Ack       *ExecutionAck `json:"ack"`
	Execution *Execution    `json:"execution"`
}

// Event types carried in ReportEvent.Type.
const (
	EventBuildCreated     = "build.created"
	EventArtifactsAdded   = "build.artifacts_added"
	EventExecutionSaved   = "execution.saved"
	EventScreenshotStored = "screenshot.stored"
)

// Topic names used when mirroring reports onto a broker.
const (
	// TopicBuilds carries build creation and artifact updates.
	TopicBuilds = "angles.builds"

	// TopicExecutions carries saved executions with their full action tree.
	TopicExecutions = "angles.executions"

	// TopicScreenshots carries stored screenshot metadata.
	TopicScreenshots = "angles.screenshots"
)
