// Package mirror republishes every successful reporting write onto a message
// broker so downstream consumers can follow a build without polling the service.
package mirror

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"angles-reporter/src/broker"
	"angles-reporter/src/contracts"
	"angles-reporter/src/logger"
	"angles-reporter/src/transport"
)

// Transport decorates another transport. Records are published only after the
// wrapped call succeeds, keyed by build ID so a build's events stay ordered.
type Transport struct {
	next   transport.Transport
	broker broker.Broker
	log    logger.Logger
	now    func() time.Time
}

var _ transport.Transport = (*Transport)(nil)

// New wraps next. A nil logger discards publish failures.
func New(next transport.Transport, brk broker.Broker, log logger.Logger) *Transport {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Transport{
		next:   next,
		broker: brk,
		log:    log,
		now:    time.Now,
	}
}

func (t *Transport) CreateBuild(ctx context.Context, req *contracts.CreateBuildRequest) (*contracts.Build, error) {
	build, err := t.next.CreateBuild(ctx, req)
	if err != nil {
		return nil, err
	}
	t.publish(ctx, contracts.TopicBuilds, contracts.EventBuildCreated, build.ID, build)
	return build, nil
}

func (t *Transport) AddArtifacts(ctx context.Context, buildID string, artifacts []contracts.Artifact) (*contracts.Build, error) {
	build, err := t.next.AddArtifacts(ctx, buildID, artifacts)
	if err != nil {
		return nil, err
	}
	t.publish(ctx, contracts.TopicBuilds, contracts.EventArtifactsAdded, buildID, build)
	return build, nil
}

// SaveExecution publishes the full execution tree along with the service ack.
func (t *Transport) SaveExecution(ctx context.Context, execution *contracts.Execution) (*contracts.ExecutionAck, error) {
	ack, err := t.next.SaveExecution(ctx, execution)
	if err != nil {
		return nil, err
	}

	payload := contracts.ExecutionSavedPayload{Ack: ack, Execution: execution}
	t.publish(ctx, contracts.TopicExecutions, contracts.EventExecutionSaved, execution.BuildID, payload)
	return ack, nil
}

func (t *Transport) SaveScreenshot(ctx context.Context, req *contracts.StoreScreenshotRequest, platform *contracts.ScreenshotPlatform) (*contracts.Screenshot, error) {
	shot, err := t.next.SaveScreenshot(ctx, req, platform)
	if err != nil {
		return nil, err
	}
	t.publish(ctx, contracts.TopicScreenshots, contracts.EventScreenshotStored, req.BuildID, shot)
	return shot, nil
}

// publish never fails the caller: the remote write has already happened.
func (t *Transport) publish(ctx context.Context, topic, eventType, buildID string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		t.log.Error("[Mirror] Failed to marshal %s payload: %v", eventType, err)
		return
	}

	event := contracts.ReportEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		BuildID:   buildID,
		Timestamp: t.now().UTC().Format(time.RFC3339),
		Payload:   body,
	}
	data, err := json.Marshal(event)
	if err != nil {
		t.log.Error("[Mirror] Failed to marshal event: %v", err)
		return
	}

	if err := t.broker.Publish(ctx, topic, buildID, data); err != nil {
		t.log.Error("[Mirror] Failed to publish %s to %s: %v", eventType, topic, err)
		return
	}
	t.log.Debug("[Mirror] Published %s for build %s to %s", eventType, buildID, topic)
}
