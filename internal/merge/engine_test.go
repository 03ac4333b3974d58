package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seamerge/domain/core"
	"seamerge/domain/sensor"
)

func row(values map[string]interface{}) sensor.Row {
	r := make(sensor.Row, len(values))
	for k, v := range values {
		r[k] = v
	}
	return r
}

func TestMergeSequential(t *testing.T) {
	a := parsedFile("ALGA_GP_C_S_2504-2506_LOG_AVG.csv", "Date", []string{"Date", "temp"},
		row(map[string]interface{}{"Date": "2025-04-01", "temp": "10"}),
		row(map[string]interface{}{"Date": "2025-04-02", "temp": "11"}),
	)
	b := parsedFile("ALGA_GP_F_L_2504-2506_LOG_AVG.csv", "Date", []string{"Date", "temp"},
		row(map[string]interface{}{"Date": "2025-03-30", "temp": "9"}),
		row(map[string]interface{}{"Date": "2025-04-03", "temp": "12"}),
	)

	result, err := NewEngine().Merge([]*sensor.ParsedFile{a, b}, ModeSequential, LastWins, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "temp"}, result.Headers)
	require.Len(t, result.Rows, 4)
	assert.Equal(t, "2025-03-30", result.Rows[0]["Date"])
	assert.Equal(t, "2025-04-01", result.Rows[1]["Date"])
	assert.Equal(t, "2025-04-02", result.Rows[2]["Date"])
	assert.Equal(t, "2025-04-03", result.Rows[3]["Date"])
}

func TestMergeSequentialStableOnEqualTimestamps(t *testing.T) {
	a := parsedFile("a.csv", "Date", []string{"Date", "v"},
		row(map[string]interface{}{"Date": "2025-04-01", "v": "from-a"}),
	)
	b := parsedFile("b.csv", "Date", []string{"Date", "v"},
		row(map[string]interface{}{"Date": "2025-04-01", "v": "from-b"}),
	)

	result, err := NewEngine().Merge([]*sensor.ParsedFile{a, b}, ModeSequential, LastWins, nil)
	require.NoError(t, err)

	// Equal timestamps keep original file order, earlier file first
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "from-a", result.Rows[0]["v"])
	assert.Equal(t, "from-b", result.Rows[1]["v"])
}

func TestMergeSequentialRejectsHeaderMismatch(t *testing.T) {
	a := parsedFile("a.csv", "Date", []string{"Date", "temp"})
	b := parsedFile("b.csv", "Date", []string{"Date", "salinity"})

	_, err := NewEngine().Merge([]*sensor.ParsedFile{a, b}, ModeSequential, LastWins, nil)
	require.Error(t, err)
	assert.True(t, core.IsMergeError(err))
}

func TestMergeStackParametersUnion(t *testing.T) {
	a := parsedFile("ALGA_GP_C_S_2504-2506_LOG_AVG.csv", "Date", []string{"Date", "temp"},
		row(map[string]interface{}{"Date": "2025-04-01", "temp": "10"}),
		row(map[string]interface{}{"Date": "2025-04-02", "temp": "11"}),
	)
	b := parsedFile("ALGA_WQ_C_S_2504-2506_LOG_AVG.csv", "Date", []string{"Date", "salinity"},
		row(map[string]interface{}{"Date": "2025-04-01", "salinity": "35"}),
		row(map[string]interface{}{"Date": "2025-04-03", "salinity": "36"}),
	)

	result, err := NewEngine().Merge([]*sensor.ParsedFile{a, b}, ModeStackParameters, LastWins, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "temp", "salinity"}, result.Headers)
	require.Len(t, result.Rows, 3)

	// Shared timestamp yields exactly one row carrying both columns
	shared := result.Rows[0]
	assert.Equal(t, "2025-04-01", shared["Date"])
	assert.Equal(t, "10", shared["temp"])
	assert.Equal(t, "35", shared["salinity"])

	// Missing combinations get explicit nulls
	assert.Equal(t, "11", result.Rows[1]["temp"])
	assert.Nil(t, result.Rows[1]["salinity"])
	assert.Nil(t, result.Rows[2]["temp"])
	assert.Equal(t, "36", result.Rows[2]["salinity"])
}

func conflictingPair() (*sensor.ParsedFile, *sensor.ParsedFile) {
	a := parsedFile("ALGA_GP_C_S_2504-2506_LOG_AVG.csv", "Date", []string{"Date", "temp"},
		row(map[string]interface{}{"Date": "2025-04-01", "temp": "10"}),
	)
	b := parsedFile("ALGA_GP_C_S_2504-2506_LOG_MAX.csv", "Date", []string{"Date", "temp"},
		row(map[string]interface{}{"Date": "2025-04-01", "temp": "14"}),
	)
	return a, b
}

func TestMergeStackParametersLastWins(t *testing.T) {
	a, b := conflictingPair()
	result, err := NewEngine().Merge([]*sensor.ParsedFile{a, b}, ModeStackParameters, LastWins, nil)
	require.NoError(t, err)

	require.Len(t, result.Rows, 1)
	assert.Equal(t, "14", result.Rows[0]["temp"])
}

func TestMergeStackParametersFirstWins(t *testing.T) {
	a, b := conflictingPair()
	result, err := NewEngine().Merge([]*sensor.ParsedFile{a, b}, ModeStackParameters, FirstWins, nil)
	require.NoError(t, err)

	require.Len(t, result.Rows, 1)
	assert.Equal(t, "10", result.Rows[0]["temp"])
}

func TestMergeStackParametersErrorPolicy(t *testing.T) {
	a, b := conflictingPair()
	_, err := NewEngine().Merge([]*sensor.ParsedFile{a, b}, ModeStackParameters, ErrorOnConflict, nil)
	require.Error(t, err)
	assert.True(t, core.IsMergeError(err))
	assert.Contains(t, err.Error(), "temp")
}

func TestMergeStackParametersSuffixQualify(t *testing.T) {
	a, b := conflictingPair()
	result, err := NewEngine().Merge([]*sensor.ParsedFile{a, b}, ModeStackParameters, SuffixQualify, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "temp_LOG_AVG", "temp_LOG_MAX"}, result.Headers)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "10", result.Rows[0]["temp_LOG_AVG"])
	assert.Equal(t, "14", result.Rows[0]["temp_LOG_MAX"])
}

func TestMergeStackParametersRulesQualify(t *testing.T) {
	// Enabled rules for every source suffix split the column even under
	// the last-wins default
	a, b := conflictingPair()
	rules := []sensor.MergeRule{
		{Suffix: "LOG_AVG", Enabled: true},
		{Suffix: "LOG_MAX", Enabled: true},
	}
	result, err := NewEngine().Merge([]*sensor.ParsedFile{a, b}, ModeStackParameters, LastWins, rules)
	require.NoError(t, err)

	require.Len(t, result.Rows, 1)
	assert.Equal(t, "10", result.Rows[0]["temp_LOG_AVG"])
	assert.Equal(t, "14", result.Rows[0]["temp_LOG_MAX"])

	// A disabled rule falls back to overwrite
	rules[1].Enabled = false
	result, err = NewEngine().Merge([]*sensor.ParsedFile{a, b}, ModeStackParameters, LastWins, rules)
	require.NoError(t, err)
	assert.Equal(t, "14", result.Rows[0]["temp"])
}

func TestMergeRequiresTwoFiles(t *testing.T) {
	a := parsedFile("a.csv", "Date", []string{"Date", "temp"})
	_, err := NewEngine().Merge([]*sensor.ParsedFile{a}, ModeSequential, LastWins, nil)
	assert.ErrorIs(t, err, core.ErrTooFewFiles)
}

func TestEncodeCSVQuotesDelimiters(t *testing.T) {
	result := &Result{
		Headers: []string{"Date", "note"},
		Rows: []sensor.Row{
			{"Date": "2025-04-01", "note": "calm, clear"},
			{"Date": "2025-04-02", "note": nil},
		},
	}
	data, err := EncodeCSV(result)
	require.NoError(t, err)

	assert.Equal(t, "Date,note\n2025-04-01,\"calm, clear\"\n2025-04-02,\n", string(data))
}

func TestFileSuffix(t *testing.T) {
	tests := []struct {
		fileName string
		expected string
	}{
		{"ALGA_GP_C_S_2504-2506_LOG_AVG.csv", "LOG_AVG"},
		{"ALGA_GP_C_S_2504-2506_RAW.csv", "RAW"},
		{"ALGA_GP_C_S_2504_2506_24hr.csv", "24hr"},
		{"ALGA_GP_C_S_2504-2506.csv", ""},
		{"plain.csv", ""},
		{"no_range_here.csv", "here"},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, FileSuffix(test.fileName), "suffix of %s", test.fileName)
	}
}
