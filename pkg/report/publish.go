package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/limaJavier/squadplanner/pkg/model"
	"github.com/limaJavier/squadplanner/pkg/schedule"
	"github.com/limaJavier/squadplanner/pkg/search"
	"github.com/limaJavier/squadplanner/pkg/skill"
	"github.com/sirupsen/logrus"
)

const InfeasibleName = "INFEASIBLE_PROBLEM"

func ResultName(iteration int) string        { return fmt.Sprintf("%d_result.txt", iteration) }
func SquadName(iteration int) string         { return fmt.Sprintf("%d_squad.csv", iteration) }
func SubstitutionsName(iteration int) string { return fmt.Sprintf("%d_substitutions.csv", iteration) }

// Publisher renders the artifacts of accepted solutions into a store
type Publisher struct {
	store    Store
	table    *skill.Table
	timeline schedule.Timeline
	logger   *logrus.Entry
}

func NewPublisher(store Store, table *skill.Table, timeline schedule.Timeline, logger *logrus.Entry) *Publisher {
	return &Publisher{
		store:    store,
		table:    table,
		timeline: timeline,
		logger:   logger,
	}
}

// Publish writes the roster, substitution and text artifacts of a result. Artifacts already
// written are kept when a later one fails.
func (publisher *Publisher) Publish(ctx context.Context, result search.Result) error {
	artifacts := []struct {
		name  string
		write func(buffer *bytes.Buffer) error
	}{
		{ResultName(result.Iteration), func(buffer *bytes.Buffer) error {
			return WriteText(buffer, publisher.table, result.Objective, result.Schedule, publisher.timeline)
		}},
		{SquadName(result.Iteration), func(buffer *bytes.Buffer) error {
			return WriteRoster(buffer, result.Schedule, publisher.timeline)
		}},
		{SubstitutionsName(result.Iteration), func(buffer *bytes.Buffer) error {
			return WriteSubstitutions(buffer, result.Schedule, publisher.timeline)
		}},
	}

	for _, artifact := range artifacts {
		var buffer bytes.Buffer
		if err := artifact.write(&buffer); err != nil {
			return fmt.Errorf("cannot render %v: %w", artifact.name, err)
		}
		if err := publisher.store.Put(ctx, artifact.name, buffer.Bytes()); err != nil {
			return err
		}
		publisher.logger.WithField("artifact", publisher.store.Location(artifact.name)).Debug("Artifact written")
	}
	return nil
}

// PublishInfeasible writes the sentinel signalling that no schedule satisfies the parameters
func (publisher *Publisher) PublishInfeasible(ctx context.Context, params model.Params) error {
	body := fmt.Sprintf("No feasible schedule for %v players, %v positions, %v windows and %v minimum windows between substitutions\n",
		publisher.table.PlayerCount(), publisher.table.PositionCount(), params.Windows, params.MinWindowsBetweenSub)

	if err := publisher.store.Put(ctx, InfeasibleName, []byte(body)); err != nil {
		return err
	}
	publisher.logger.WithField("artifact", publisher.store.Location(InfeasibleName)).Info("Infeasibility sentinel written")
	return nil
}
