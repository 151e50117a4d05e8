package assignment_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tutordex/aggregator/pkg/assignment"
	"github.com/tutordex/aggregator/pkg/enrichment"
	"github.com/tutordex/aggregator/pkg/validate"
	testdb "github.com/tutordex/aggregator/test/database"
)

func baseRow() assignment.Row {
	return assignment.Row{
		ChannelID:   100,
		MessageID:   1,
		PublishedAt: time.Now(),
		Record: validate.Record{
			LearningMode: validate.ModeOnline,
		},
		Signals: enrichment.Signals{
			SubjectsCanonical: []string{"MATH"},
			Levels:            []string{"SECONDARY"},
		},
		Dup: enrichment.Duplicate{GroupID: "tg:100:1", IsPrimaryInGroup: true},
	}
}

func TestUpsert_IdempotentOnChannelAndMessageID(t *testing.T) {
	client := testdb.NewTestClient(t)
	store := assignment.New(client.Pool)
	ctx := context.Background()

	row := baseRow()
	require.NoError(t, store.Upsert(ctx, row, time.Now()))
	require.NoError(t, store.Upsert(ctx, row, time.Now().Add(time.Second)))

	var count int
	err := client.Pool.QueryRow(ctx, `SELECT count(*) FROM assignments WHERE channel_id = $1 AND message_id = $2`, 100, 1).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsert_DoesNotRegressUpdatedAt(t *testing.T) {
	client := testdb.NewTestClient(t)
	store := assignment.New(client.Pool)
	ctx := context.Background()

	row := baseRow()
	later := time.Now()
	earlier := later.Add(-time.Hour)

	require.NoError(t, store.Upsert(ctx, row, later))

	row.Signals.Region = "NORTH"
	require.NoError(t, store.Upsert(ctx, row, earlier))

	var region *string
	err := client.Pool.QueryRow(ctx, `SELECT region FROM assignments WHERE channel_id = $1 AND message_id = $2`, 100, 1).Scan(&region)
	require.NoError(t, err)
	assert.Nil(t, region)
}

func TestUpsert_AppliesNewerWrite(t *testing.T) {
	client := testdb.NewTestClient(t)
	store := assignment.New(client.Pool)
	ctx := context.Background()

	row := baseRow()
	require.NoError(t, store.Upsert(ctx, row, time.Now()))

	row.Signals.Region = "EAST"
	require.NoError(t, store.Upsert(ctx, row, time.Now().Add(time.Minute)))

	var region *string
	err := client.Pool.QueryRow(ctx, `SELECT region FROM assignments WHERE channel_id = $1 AND message_id = $2`, 100, 1).Scan(&region)
	require.NoError(t, err)
	require.NotNil(t, region)
	assert.Equal(t, "EAST", *region)
}
