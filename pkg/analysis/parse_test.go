package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/product-booth/pkg/client"
	"github.com/menta2k/product-booth/pkg/types"
)

const sampleJSON = `{"title":"1999 Pokemon Base Set Charizard #4 Holo","details":{"brand":"Wizards","year":1999,"setName":"Base Set","cardNumber":"4/102","features":["Holo","1st Edition"],"condition":"null","team":null}}`

func TestParseResponseFormats(t *testing.T) {
	inputs := map[string]string{
		"bare":     sampleJSON,
		"fenced":   "```json\n" + sampleJSON + "\n```",
		"plain":    "```\n" + sampleJSON + "\n```",
		"trailing": sampleJSON + "\n\nLet me know if you need anything else!",
		"leading":  "Here is the listing:\n" + sampleJSON,
	}

	want, err := ParseResponse(sampleJSON)
	require.NoError(t, err)

	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			got, err := ParseResponse(raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseResponseFields(t *testing.T) {
	got, err := ParseResponse(sampleJSON)
	require.NoError(t, err)

	assert.Equal(t, "1999 Pokemon Base Set Charizard #4 Holo", got.Title)
	assert.Equal(t, types.Text("1999"), got.Details.Year)
	assert.Equal(t, types.Text("null"), got.Details.Condition, "sentinel is retained in the record")
	assert.Equal(t, types.List{"Holo", "1st Edition"}, got.Details.Features)

	labels := []string{}
	for _, f := range got.Details.Fields() {
		labels = append(labels, f.Label)
	}
	assert.Equal(t, []string{"Brand", "Year", "Set", "Card #", "Features"}, labels)
}

func TestParseResponseScenario(t *testing.T) {
	got, err := ParseResponse("```json\n{\"title\":\"X\",\"details\":{}}\n```")
	require.NoError(t, err)
	assert.Equal(t, &types.AnalysisResult{Title: "X"}, got)
}

func TestParseResponseBracesInStrings(t *testing.T) {
	raw := `Sure! {"title":"Card {rare}","details":{"otherInfo":"says \"}\" on back"}} trailing {junk`
	got, err := ParseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Card {rare}", got.Title)
	assert.Equal(t, types.Text(`says "}" on back`), got.Details.OtherInfo)
}

func TestParseResponseMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"I cannot identify this item.",
		"null",
		"```json\n{\"title\": \n```",
		`{"title": "unterminated`,
		`{"title": 5}`,
	} {
		_, err := ParseResponse(raw)
		assert.ErrorIs(t, err, client.ErrMalformedResponse, "input %q", raw)
	}
}

func TestParseResponseSingleFeature(t *testing.T) {
	got, err := ParseResponse(`{"title":"T","details":{"features":"Rookie"}}`)
	require.NoError(t, err)
	assert.Equal(t, types.List{"Rookie"}, got.Details.Features)
}

func TestParseResponseEmptyFeatures(t *testing.T) {
	got, err := ParseResponse(`{"title":"T","details":{"features":[]}}`)
	require.NoError(t, err)
	assert.NotNil(t, got.Details.Features)
	assert.Empty(t, got.Details.Fields())
}

func TestNormalizeFeatures(t *testing.T) {
	got := normalizeFeatures(types.List{" Holo ", "", "holo", "Rookie", "null"})
	assert.Equal(t, types.List{"Holo", "Rookie", "null"}, got)
}
