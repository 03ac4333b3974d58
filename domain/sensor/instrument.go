package sensor

// InstrumentType identifies the sensor family a data file came from,
// derived from the file naming convention.
type InstrumentType string

const (
	InstrumentCROP   InstrumentType = "CROP"
	InstrumentCHEMSW InstrumentType = "CHEMSW"
	InstrumentCHEMWQ InstrumentType = "CHEMWQ"
	InstrumentCHEM   InstrumentType = "CHEM"
	InstrumentWQ     InstrumentType = "WQ"
	InstrumentEDNA   InstrumentType = "EDNA"
	InstrumentFPOD   InstrumentType = "FPOD"
	InstrumentSubcam InstrumentType = "Subcam"
	InstrumentGP     InstrumentType = "GP"
)

// IsDiscrete reports whether the instrument samples at irregular,
// event-based timestamps (grab samples) rather than continuously.
func (t InstrumentType) IsDiscrete() bool {
	switch t {
	case InstrumentCROP, InstrumentCHEM, InstrumentCHEMSW, InstrumentCHEMWQ, InstrumentWQ, InstrumentEDNA:
		return true
	}
	return false
}

func (t InstrumentType) String() string { return string(t) }
