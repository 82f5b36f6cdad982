package report

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/limaJavier/squadplanner/pkg/model"
	"github.com/limaJavier/squadplanner/pkg/schedule"
	"github.com/limaJavier/squadplanner/pkg/search"
	"github.com/limaJavier/squadplanner/pkg/skill"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T) (*skill.Table, schedule.Schedule, schedule.Timeline) {
	table, err := skill.NewTable(
		[]string{"Ann", "Bob", "Cid"},
		[]string{"Keeper", "Striker"},
		[][]float64{{5, 1}, {2, 4}, {3, 3}},
	)
	require.NoError(t, err)

	tensor := schedule.NewTensor(3, 2, 3)
	for window, line := range [][]int{{0, 1}, {2, 1}, {2, 0}} {
		for position, player := range line {
			tensor.Set(player, position, window, true)
		}
	}
	plan, err := schedule.Decode(table, tensor)
	require.NoError(t, err)

	return table, plan, schedule.Timeline{Windows: 3, MatchMinutes: 90}
}

func silentLogger() *logrus.Entry {
	logger, _ := test.NewNullLogger()
	return logrus.NewEntry(logger)
}

func TestWriteRoster(t *testing.T) {
	//** Arrange
	_, plan, timeline := fixture(t)
	var buffer bytes.Buffer

	//** Act
	err := WriteRoster(&buffer, plan, timeline)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, `window,position,player,score,minutes
0,Keeper,Ann,5," 0.0 - 30.0"
0,Striker,Bob,4," 0.0 - 30.0"
0,Substitute,Cid,0," 0.0 - 30.0"
1,Keeper,Cid,3,30.0 - 60.0
1,Striker,Bob,4,30.0 - 60.0
1,Substitute,Ann,0,30.0 - 60.0
2,Keeper,Cid,3,60.0 - 90.0
2,Striker,Ann,1,60.0 - 90.0
2,Substitute,Bob,0,60.0 - 90.0
`, buffer.String())
}

func TestWriteSubstitutions(t *testing.T) {
	//** Arrange
	_, plan, timeline := fixture(t)
	var buffer bytes.Buffer

	//** Act
	err := WriteSubstitutions(&buffer, plan, timeline)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, `window,position,player_out,player_in,minutes
1,Keeper,Ann,Cid,30.0
2,Striker,Bob,Ann,60.0
`, buffer.String())
}

func TestWriteText(t *testing.T) {
	//** Arrange
	table, plan, timeline := fixture(t)
	var buffer bytes.Buffer

	//** Act
	err := WriteText(&buffer, table, 24, plan, timeline)

	//** Assert
	require.NoError(t, err)
	text := buffer.String()
	assert.Regexp(t, `^Optimal score: 24\.00\n\n`, text)
	assert.Contains(t, text, "Substitute")
	assert.Contains(t, text, "30.0 - 60.0")
	assert.Contains(t, text, "\nAnn: Keeper (5) - Substitute (0) - Striker (1)\n")
	assert.Contains(t, text, "\nBob: Striker (4) - Striker (4) - Substitute (0)\n")
	assert.Contains(t, text, "\nCid: Substitute (0) - Keeper (3) - Keeper (3)\n")
	assert.NotContains(t, text, "No substitutions")
}

func TestWriteTextWithoutSubstitutions(t *testing.T) {
	table, plan, timeline := fixture(t)
	plan.Substitutions = nil
	var buffer bytes.Buffer

	require.NoError(t, WriteText(&buffer, table, 0, plan, timeline))

	assert.Contains(t, buffer.String(), "No substitutions\n")
}

func TestDirStore(t *testing.T) {
	//** Arrange
	dir := filepath.Join(t.TempDir(), "nested", "results")
	store, err := NewDirStore(dir)
	require.NoError(t, err)

	//** Act
	err = store.Put(context.Background(), "0_squad.csv", []byte("window\n"))

	//** Assert
	require.NoError(t, err)
	content, err := os.ReadFile(filepath.Join(dir, "0_squad.csv"))
	require.NoError(t, err)
	assert.Equal(t, "window\n", string(content))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Put(ctx, "1_squad.csv", nil), context.Canceled)
}

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func (client *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if client.err != nil {
		return nil, client.err
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	client.objects[*params.Bucket+"/"+*params.Key] = body
	client.types[*params.Key] = *params.ContentType
	return &s3.PutObjectOutput{}, nil
}

func (client *fakeS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, client.err
}

func TestS3Store(t *testing.T) {
	t.Run("Put", func(t *testing.T) {
		//** Arrange
		client := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
		store := newS3Store(client, "squads", "/runs/42/")

		//** Act
		require.NoError(t, store.Put(context.Background(), "0_squad.csv", []byte("a,b\n")))
		require.NoError(t, store.Put(context.Background(), InfeasibleName, []byte("none\n")))

		//** Assert
		assert.Equal(t, []byte("a,b\n"), client.objects["squads/runs/42/0_squad.csv"])
		assert.Equal(t, "text/csv", client.types["runs/42/0_squad.csv"])
		assert.Equal(t, "text/plain", client.types["runs/42/"+InfeasibleName])
		assert.Equal(t, "s3://squads/runs/42/0_squad.csv", store.Location("0_squad.csv"))
		assert.Equal(t, "s3://squads/0_squad.csv", newS3Store(client, "squads", "").Location("0_squad.csv"))
	})

	t.Run("Service error", func(t *testing.T) {
		//** Arrange
		apiErr := &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "bucket does not exist"}
		store := newS3Store(&fakeS3{err: apiErr}, "missing", "")

		//** Act
		err := store.Put(context.Background(), "0_result.txt", []byte("x"))

		//** Assert
		assert.ErrorContains(t, err, "NoSuchBucket")
		var target smithy.APIError
		assert.True(t, errors.As(err, &target))
	})
}

func TestPublisher(t *testing.T) {
	table, plan, timeline := fixture(t)
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)
	publisher := NewPublisher(store, table, timeline, silentLogger())

	t.Run("Publish", func(t *testing.T) {
		//** Act
		err := publisher.Publish(context.Background(), search.Result{Iteration: 3, Objective: 24, Schedule: plan})

		//** Assert
		require.NoError(t, err)
		for _, name := range []string{"3_result.txt", "3_squad.csv", "3_substitutions.csv"} {
			assert.FileExists(t, store.Location(name))
		}
		roster, err := os.ReadFile(store.Location(SquadName(3)))
		require.NoError(t, err)
		assert.Contains(t, string(roster), "0,Keeper,Ann,5")
	})

	t.Run("Infeasible", func(t *testing.T) {
		//** Act
		err := publisher.PublishInfeasible(context.Background(), model.Params{Windows: 4, MatchMinutes: 60, MinWindowsBetweenSub: 3})

		//** Assert
		require.NoError(t, err)
		content, err := os.ReadFile(store.Location(InfeasibleName))
		require.NoError(t, err)
		assert.Equal(t, "No feasible schedule for 3 players, 2 positions, 4 windows and 3 minimum windows between substitutions\n", string(content))
	})
}
