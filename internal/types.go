package internal

// Well-known record keys.
const (
	KeyGeneralInformation = "general_information"
	KeyGroupID            = "group_id"
	KeyNetworkDescription = "network_description"
	KeySafetyGear         = "counterweight_with_safety_gear"
	KeyPageCount          = "numpag"
	KeyDate               = "datum"

	KeyUnitCount       = "antal_hissar"
	KeyUnitLabels      = "hissbeteckning"
	KeyMachineRoomType = "machineroom_type"
)

// Record maps normalized keys to raw cell values. A unit record describes one
// elevator, the global record describes the whole document.
type Record map[string]string

// Clone returns an independent copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge copies every entry of other into r, overwriting existing keys.
func (r Record) Merge(other Record) {
	for k, v := range other {
		r[k] = v
	}
}

type CellKind string

const (
	CellHeader CellKind = "TH"
	CellData   CellKind = "TD"
)

type Cell struct {
	Kind CellKind
	Text string
}

type Row struct {
	Cells []Cell
}

type Table struct {
	Rows []Row
}

// Columns reports the width of the header row.
func (t Table) Columns() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0].Cells)
}

// SpecGroup is one equivalence class of units.
type SpecGroup struct {
	Representative  Record
	UnitCount       int
	UnitLabels      []string
	MachineRoomType string
}

// GroupDefinition is the grouping declared by a header row of the export.
type GroupDefinition struct {
	Labels []string
	Count  int
}

type RunRow struct {
	ID         int
	TraceID    string
	InputName  string
	InputHash  string
	Units      int
	Groups     int
	OutputPath string
	Status     string
	Error      string
	CreatedAt  string
}

// InboundMessage is a raw e-mail fetched from a mailbox.
type InboundMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}
