package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	args := m.Called(ctx, query, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Result), args.Error(1)
}

func TestEmptyQueryFailsWithoutCollaboratorCall(t *testing.T) {
	client := new(MockClient)
	orch := NewOrchestrator(client, 0)

	_, err := orch.Search(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = orch.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	client.AssertNotCalled(t, "Search")
}

func TestQueryEmptiedBySanitizationFails(t *testing.T) {
	client := new(MockClient)
	orch := NewOrchestrator(client, 0)

	_, err := orch.Search(context.Background(), "!!!???***")
	assert.ErrorIs(t, err, ErrInvalidQuery)

	client.AssertNotCalled(t, "Search")
}

func TestSanitizationStripsPunctuationButKeepsHyphens(t *testing.T) {
	client := new(MockClient)
	client.On("Search", mock.Anything, "AC-DC Back in Black", DefaultMaxResults).
		Return([]Result{{ID: "dQw4w9WgXcQ", Title: "Back in Black"}}, nil)

	orch := NewOrchestrator(client, 0)
	_, err := orch.Search(context.Background(), "AC-DC: Back in Black!?")
	require.NoError(t, err)

	client.AssertExpectations(t)
}

func TestMalformedIDsAreFiltered(t *testing.T) {
	client := new(MockClient)
	client.On("Search", mock.Anything, mock.Anything, mock.Anything).Return([]Result{
		{ID: "aaaaaaaaaaa", Title: "keep"},
		{ID: "tooshort", Title: "drop"},
		{ID: "", Title: "drop"},
		{ID: "waytoolongid", Title: "drop"},
		{ID: "bbbbbbbbbbb", Title: "keep"},
	}, nil)

	orch := NewOrchestrator(client, 0)
	candidates, err := orch.Search(context.Background(), "some song")
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, "aaaaaaaaaaa", candidates[0].VideoID)
	assert.Equal(t, "bbbbbbbbbbb", candidates[1].VideoID)
}

func TestNoSurvivingCandidates(t *testing.T) {
	client := new(MockClient)
	client.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return([]Result{{ID: "bad"}}, nil)

	orch := NewOrchestrator(client, 0)
	_, err := orch.Search(context.Background(), "obscure song")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestCollaboratorFailureIsTyped(t *testing.T) {
	client := new(MockClient)
	client.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("connection refused"))

	orch := NewOrchestrator(client, 0)
	_, err := orch.Search(context.Background(), "some song")
	assert.ErrorIs(t, err, ErrCollaborator)
}

func TestDisplayFieldsDefaultToUnknown(t *testing.T) {
	client := new(MockClient)
	client.On("Search", mock.Anything, mock.Anything, mock.Anything).Return([]Result{
		{ID: "aaaaaaaaaaa", Title: "With Data", Uploader: "Artist", Duration: "125", Views: "10432"},
		{ID: "bbbbbbbbbbb", Title: "Without Data"},
		{ID: "ccccccccccc", Title: "Garbage Data", Duration: "soon", Views: "many"},
	}, nil)

	orch := NewOrchestrator(client, 0)
	candidates, err := orch.Search(context.Background(), "anything")
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	assert.Equal(t, "2:05", candidates[0].DurationDisplay)
	assert.Equal(t, "10432", candidates[0].ViewsDisplay)
	assert.Equal(t, uint(125), candidates[0].DurationSeconds)

	assert.Equal(t, "Unknown", candidates[1].DurationDisplay)
	assert.Equal(t, "Unknown", candidates[1].ViewsDisplay)

	assert.Equal(t, "Unknown", candidates[2].DurationDisplay)
	assert.Equal(t, "Unknown", candidates[2].ViewsDisplay)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "2:05", FormatDuration(125))
	assert.Equal(t, "0:59", FormatDuration(59))
	assert.Equal(t, "0:00", FormatDuration(0))
	assert.Equal(t, "60:00", FormatDuration(3600))
}
