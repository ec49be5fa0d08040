package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/veridian/internal/model"
	"github.com/veridian-labs/veridian/internal/service"
)

func possibleMatchVerdict() (model.Verdict, model.ScreeningResult) {
	verdict := model.Verdict{
		ClusterID:      "sha256:cluster",
		CanonicalHash:  "sha256:form",
		Outcome:        model.OutcomePossibleMatch,
		TopScore:       0.78,
		MatchedEntryID: "OFAC-001",
	}
	result := model.ScreeningResult{
		Outcome: model.OutcomePossibleMatch,
		Matches: []model.ScreeningMatch{{
			Entry: model.WatchlistEntry{
				ID:       "OFAC-001",
				Name:     "john doe",
				Category: "sanctions",
				Source:   "OFAC",
			},
			Score:         0.78,
			MatchedFields: []string{model.FieldName},
		}},
	}
	return verdict, result
}

func TestReviewDecisions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  service.ReviewDecision
	}{
		{name: "confirm short", input: "c\n", want: service.ReviewConfirm},
		{name: "confirm word", input: "confirm\n", want: service.ReviewConfirm},
		{name: "dismiss short", input: "d\n", want: service.ReviewDismiss},
		{name: "skip short", input: "s\n", want: service.ReviewSkip},
		{name: "empty line skips", input: "\n", want: service.ReviewSkip},
		{name: "case insensitive", input: "C\n", want: service.ReviewConfirm},
		{name: "retries after garbage", input: "x\nd\n", want: service.ReviewDismiss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, result := possibleMatchVerdict()
			var out bytes.Buffer
			reviewer := NewReviewer(strings.NewReader(tt.input), &out)

			decision, err := reviewer.Review(context.Background(), verdict, result)
			require.NoError(t, err)
			assert.Equal(t, tt.want, decision)
		})
	}
}

func TestReviewRendersEvidence(t *testing.T) {
	verdict, result := possibleMatchVerdict()
	var out bytes.Buffer
	reviewer := NewReviewer(strings.NewReader("s\n"), &out)

	_, err := reviewer.Review(context.Background(), verdict, result)
	require.NoError(t, err)

	rendered := out.String()
	assert.Contains(t, rendered, verdict.ClusterID)
	assert.Contains(t, rendered, "john doe")
	assert.Contains(t, rendered, "0.78")
}

func TestReviewEOF(t *testing.T) {
	verdict, result := possibleMatchVerdict()
	reviewer := NewReviewer(strings.NewReader(""), &bytes.Buffer{})

	decision, err := reviewer.Review(context.Background(), verdict, result)
	require.Error(t, err)
	assert.Equal(t, service.ReviewSkip, decision)
}

func TestReviewCancelledContext(t *testing.T) {
	verdict, result := possibleMatchVerdict()
	reviewer := NewReviewer(strings.NewReader("c\n"), &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	decision, err := reviewer.Review(ctx, verdict, result)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, service.ReviewSkip, decision)
}
