package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"seamerge/domain/sensor"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		fileName string
		expected sensor.InstrumentType
	}{
		{"ALGA_GP_C_S_2504-2506_LOG_AVG.csv", sensor.InstrumentGP},
		{"ALGA_CROP_C_S_2504-2506.csv", sensor.InstrumentCROP},
		{"ALGA_CHEMSW_C_S_2504-2506.csv", sensor.InstrumentCHEMSW},
		{"ALGA_CHEMWQ_C_S_2504-2506.csv", sensor.InstrumentCHEMWQ},
		{"ALGA_CHEM_C_S_2504-2506.csv", sensor.InstrumentCHEM},
		{"ALGA_WQ_C_S_2504-2506.csv", sensor.InstrumentWQ},
		{"ALGA_EDNA_C_S_2504-2506.csv", sensor.InstrumentEDNA},
		{"FPOD_ALGA-C_2504-2506.csv", sensor.InstrumentFPOD},
		{"Subcam_ALGA-C_2504-2506.csv", sensor.InstrumentSubcam},
		// Codes match case-insensitively in either of the first two tokens
		{"alga_edna_C_S_2504-2506.csv", sensor.InstrumentEDNA},
		{"CROPPED_X_2504-2506.csv", sensor.InstrumentCROP},
		// Suffix fallback anywhere in the name
		{"ALGA-C_2504-2506_chem.csv", sensor.InstrumentCHEM},
		{"ALGA-C_2504-2506_wq.csv", sensor.InstrumentWQ},
		// Nothing matches: default GP
		{"mystery-file.csv", sensor.InstrumentGP},
		{"ALGA_XYZ_C_S_2504-2506.csv", sensor.InstrumentGP},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, Classify(test.fileName), "classification of %s", test.fileName)
	}
}

func TestClassifyIsPure(t *testing.T) {
	name := "ALGA_CHEMSW_C_S_2504-2506.csv"
	first := Classify(name)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(name))
	}
}

func TestClassifyFileAreaWide(t *testing.T) {
	assert.True(t, ClassifyFile("ALGA_GP_ALL_2504-2506.csv").AreaWide)
	assert.True(t, ClassifyFile("ALGA_GP_all_2504-2506.csv").AreaWide)
	assert.False(t, ClassifyFile("ALGA_GP_C_S_2504-2506.csv").AreaWide)
}

func TestClassifyFileExpectedRange(t *testing.T) {
	c := ClassifyFile("ALGA_CHEM_C_S_2504-2506.csv")
	if assert.NotNil(t, c.ExpectedRange) {
		assert.Equal(t, 2025, c.ExpectedRange.StartYear)
		assert.Equal(t, 4, c.ExpectedRange.StartMonth)
		assert.Equal(t, 2025, c.ExpectedRange.EndYear)
		assert.Equal(t, 6, c.ExpectedRange.EndMonth)

		assert.True(t, c.ExpectedRange.Contains(2025, 5))
		assert.True(t, c.ExpectedRange.Contains(2025, 4))
		assert.False(t, c.ExpectedRange.Contains(2025, 7))
		assert.False(t, c.ExpectedRange.Contains(2024, 12))
	}

	// 24hr shape spreads the range over two tokens
	c = ClassifyFile("ALGA_GP_C_S_2504_2506_24hr.csv")
	if assert.NotNil(t, c.ExpectedRange) {
		assert.True(t, c.ExpectedRange.Contains(2025, 6))
		assert.False(t, c.ExpectedRange.Contains(2025, 7))
	}

	assert.Nil(t, ClassifyFile("mystery-file.csv").ExpectedRange)
}
