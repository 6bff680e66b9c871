package constants

// Sector classifies a scraped agency's market focus.
type Sector string

const (
	SectorLuxury     Sector = "Luxury"
	SectorStandard   Sector = "Standard"
	SectorCommercial Sector = "Commercial"
)

// Sectors lists the accepted sector values, in the order the scorer emits them.
var Sectors = []Sector{SectorLuxury, SectorStandard, SectorCommercial}

// SectorStrings returns the sector values as plain strings (for schema enums).
func SectorStrings() []string {
	out := make([]string, len(Sectors))
	for i, s := range Sectors {
		out[i] = string(s)
	}
	return out
}

// PriorityScoreThreshold is the ingestion classification cut: a lead scoring
// strictly above it is stored as PRIORITY, everything else READY_TO_PROCESS.
// Applied exactly once, at upsert.
const PriorityScoreThreshold = 7
