package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/crowdfund/apiserver/internal/mq"
	"github.com/crowdfund/apiserver/types"
)

// ProjectEvents publishes project lifecycle notifications for
// downstream consumers. Publishing is fire-and-forget: a broker
// failure is reported to stderr but never fails the request that
// triggered it. A nil ProjectEvents disables publishing entirely.
type ProjectEvents struct {
	mq      *mq.MQ
	channel string
}

func NewProjectEvents(broker *mq.MQ, channel string) *ProjectEvents {
	if broker == nil {
		return nil
	}
	return &ProjectEvents{mq: broker, channel: channel}
}

type projectEvent struct {
	Event     string    `json:"event"`
	ProjectID int       `json:"project_id"`
	Creator   int       `json:"creator,omitempty"`
	Title     string    `json:"title,omitempty"`
	At        time.Time `json:"at"`
}

func (e *ProjectEvents) ProjectCreated(ctx context.Context, project types.Project) {
	e.publish(ctx, projectEvent{
		Event:     "project.created",
		ProjectID: project.ID,
		Creator:   project.Creator,
		Title:     project.Title,
		At:        time.Now(),
	})
}

func (e *ProjectEvents) ProjectUpdated(ctx context.Context, project types.Project) {
	e.publish(ctx, projectEvent{
		Event:     "project.updated",
		ProjectID: project.ID,
		Title:     project.Title,
		At:        time.Now(),
	})
}

func (e *ProjectEvents) ProjectDeleted(ctx context.Context, id int) {
	e.publish(ctx, projectEvent{
		Event:     "project.deleted",
		ProjectID: id,
		At:        time.Now(),
	})
}

func (e *ProjectEvents) publish(ctx context.Context, event projectEvent) {
	if e == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	attrs := map[string]string{"event": event.Event}
	if _, err := e.mq.Publish(ctx, e.channel, data, attrs); err != nil {
		fmt.Fprintf(os.Stderr, "failed to publish %s: %v\n", event.Event, err)
	}
}
