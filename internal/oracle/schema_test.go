package oracle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeVerdict_Query(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		check   func(t *testing.T, answer string, delta, completeness int, evidence string)
	}{
		{
			name: "valid yes with evidence",
			raw:  `{"answer":"Yes","flavor_text":"hm","score_delta":6,"new_evidence":"He had been shipwrecked.","completeness_percent":40,"is_filtered":false}`,
			check: func(t *testing.T, answer string, delta, completeness int, evidence string) {
				assert.Equal(t, "Yes", answer)
				assert.Equal(t, 6, delta)
				assert.Equal(t, 40, completeness)
				assert.Equal(t, "He had been shipwrecked.", evidence)
			},
		},
		{
			name: "fenced and lowercase answer",
			raw:  "```json\n{\"answer\":\"irrelevant\",\"score_delta\":0,\"new_evidence\":null,\"completeness_percent\":0}\n```",
			check: func(t *testing.T, answer string, delta, completeness int, evidence string) {
				assert.Equal(t, "Irrelevant", answer)
				assert.Empty(t, evidence)
			},
		},
		{
			name:    "score out of range",
			raw:     `{"answer":"Yes","score_delta":9,"completeness_percent":10}`,
			wantErr: true,
		},
		{
			name:    "missing completeness",
			raw:     `{"answer":"No","score_delta":2}`,
			wantErr: true,
		},
		{
			name:    "unknown answer",
			raw:     `{"answer":"Maybe","score_delta":2,"completeness_percent":10}`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     `The answer is yes.`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := DecodeVerdict("QUERY", tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidResponse))
				return
			}
			require.NoError(t, err)
			tt.check(t, v.Answer, v.ScoreDelta, v.Completeness, v.NewEvidence)
		})
	}
}

func TestDecodeVerdict_Solve(t *testing.T) {
	v, err := DecodeVerdict("SOLVE", `{"is_correct":true,"accuracy_percent":90,"score_delta":9,"flavor_text":"well done","missing_elements":null,"completeness_percent":100}`)
	require.NoError(t, err)
	assert.True(t, v.IsCorrect)
	assert.Equal(t, 90, v.Accuracy)
	assert.Equal(t, 9, v.ScoreDelta)
	assert.Equal(t, 100, v.Completeness)

	v, err = DecodeVerdict("SOLVE", `{"is_correct":false,"accuracy_percent":0,"score_delta":0,"missing_elements":["motive"],"completeness_percent":20}`)
	require.NoError(t, err)
	assert.False(t, v.IsCorrect)
	assert.Equal(t, []string{"motive"}, v.MissingElements)

	_, err = DecodeVerdict("SOLVE", `{"is_correct":true,"accuracy_percent":80,"score_delta":7,"completeness_percent":50}`)
	assert.Error(t, err, "solve score must be 0 or 8-10")

	_, err = DecodeVerdict("SOLVE", `{"accuracy_percent":80,"score_delta":8,"completeness_percent":50}`)
	assert.Error(t, err, "is_correct is required")
}

func TestDecodeVerdict_Filtered(t *testing.T) {
	for _, mode := range []string{"QUERY", "SOLVE"} {
		v, err := DecodeVerdict(mode, `{"is_filtered":true,"flavor_text":"Not answering that."}`)
		require.NoError(t, err)
		assert.True(t, v.IsFiltered)
		assert.Equal(t, "Not answering that.", v.FlavorText)
		assert.Zero(t, v.ScoreDelta)
	}
}

func TestDecodePuzzle(t *testing.T) {
	p, err := DecodePuzzle(`{"title":" Case #042 ","soup_surface":"A man orders soup.","soup_base":"The soup was not what he thought.","tags":{"genre":"本格","has_death":true,"difficulty":"难"}}`)
	require.NoError(t, err)
	assert.Equal(t, "Case #042", p.Title)
	assert.Equal(t, "honkaku", p.Tags.Genre)
	assert.Equal(t, "hard", p.Tags.Difficulty)
	assert.True(t, p.Tags.HasDeath)

	p, err = DecodePuzzle(`{"title":"T","soup_surface":"S","soup_base":"B","tags":{"genre":"weird","difficulty":"?"}}`)
	require.NoError(t, err)
	assert.Empty(t, p.Tags.Genre)
	assert.Empty(t, p.Tags.Difficulty)

	_, err = DecodePuzzle(`{"title":"T","soup_surface":"S","tags":{}}`)
	assert.True(t, errors.Is(err, ErrInvalidResponse))

	_, err = DecodePuzzle(`{"title":"T","soup_surface":"S","soup_base":"B"}`)
	assert.Error(t, err, "tags are required")
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("  {\"a\":1} "))
}
