package workday

import (
	"encoding/json"
	"slices"
	"time"
)

// FlagsVersion is the current layout of ResolutionFlags.
const FlagsVersion = 1

// Incident names an escalation ledger inside ResolutionFlags.
type Incident string

const (
	IncidentUnresolvedMissingClockOut Incident = "unresolvedMissingClockOut"
	IncidentAutoClosedSafety          Incident = "autoClosedSafety"
)

// EscalationLedger records who has already been told about an incident.
type EscalationLedger struct {
	EmployeeNotified    bool       `json:"employeeNotified,omitempty"`
	EmployeeNotifiedAt  *time.Time `json:"employeeNotifiedAt,omitempty"`
	NotifiedApproverIDs []string   `json:"notifiedApproverIds,omitempty"`
	LastEscalatedAt     *time.Time `json:"lastEscalatedAt,omitempty"`

	// EscalationPending stays set until one escalation pass resolved its recipients.
	EscalationPending bool `json:"escalationPending,omitempty"`
}

// HasApprover reports whether userID was already notified.
func (l EscalationLedger) HasApprover(userID string) bool {
	return slices.Contains(l.NotifiedApproverIDs, userID)
}

// AddApprovers appends ids not yet present and reports whether anything changed.
func (l *EscalationLedger) AddApprovers(ids ...string) bool {
	changed := false
	for _, id := range ids {
		if id == "" || l.HasApprover(id) {
			continue
		}
		l.NotifiedApproverIDs = append(l.NotifiedApproverIDs, id)
		changed = true
	}
	return changed
}

// ResolutionFlags is the append-only escalation ledger of a workday summary.
// Keys this version does not know are kept in Extra and written back untouched.
type ResolutionFlags struct {
	Version                   int               `json:"version"`
	DetectedAt                *time.Time        `json:"detectedAt,omitempty"`
	UnresolvedMissingClockOut *EscalationLedger `json:"unresolvedMissingClockOut,omitempty"`
	AutoClosedSafety          *EscalationLedger `json:"autoClosedSafety,omitempty"`
	AutoCloseReason           string            `json:"autoCloseReason,omitempty"`
	AutoClosedAt              *time.Time        `json:"autoClosedAt,omitempty"`
	ProtectedWindows          []string          `json:"protectedWindows,omitempty"`
	ReviewRequired            bool              `json:"reviewRequired,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Ledger returns the ledger for incident, creating it if needed.
func (f *ResolutionFlags) Ledger(incident Incident) *EscalationLedger {
	switch incident {
	case IncidentAutoClosedSafety:
		if f.AutoClosedSafety == nil {
			f.AutoClosedSafety = &EscalationLedger{}
		}
		return f.AutoClosedSafety
	default:
		if f.UnresolvedMissingClockOut == nil {
			f.UnresolvedMissingClockOut = &EscalationLedger{}
		}
		return f.UnresolvedMissingClockOut
	}
}

// PeekLedger returns a copy of the ledger for incident without creating it.
func (f ResolutionFlags) PeekLedger(incident Incident) EscalationLedger {
	var l *EscalationLedger
	if incident == IncidentAutoClosedSafety {
		l = f.AutoClosedSafety
	} else {
		l = f.UnresolvedMissingClockOut
	}
	if l == nil {
		return EscalationLedger{}
	}
	out := *l
	out.NotifiedApproverIDs = slices.Clone(l.NotifiedApproverIDs)
	return out
}

// AddProtectedWindows records window names, keeping earlier entries.
func (f *ResolutionFlags) AddProtectedWindows(names ...string) {
	for _, n := range names {
		if n != "" && !slices.Contains(f.ProtectedWindows, n) {
			f.ProtectedWindows = append(f.ProtectedWindows, n)
		}
	}
}

// Clone returns a deep copy.
func (f ResolutionFlags) Clone() ResolutionFlags {
	out := f
	if f.DetectedAt != nil {
		t := *f.DetectedAt
		out.DetectedAt = &t
	}
	if f.AutoClosedAt != nil {
		t := *f.AutoClosedAt
		out.AutoClosedAt = &t
	}
	if f.UnresolvedMissingClockOut != nil {
		l := f.PeekLedger(IncidentUnresolvedMissingClockOut)
		out.UnresolvedMissingClockOut = &l
	}
	if f.AutoClosedSafety != nil {
		l := f.PeekLedger(IncidentAutoClosedSafety)
		out.AutoClosedSafety = &l
	}
	out.ProtectedWindows = slices.Clone(f.ProtectedWindows)
	if f.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(f.Extra))
		for k, v := range f.Extra {
			out.Extra[k] = slices.Clone(v)
		}
	}
	return out
}

type flagsAlias ResolutionFlags

var knownFlagKeys = []string{
	"version",
	"detectedAt",
	"unresolvedMissingClockOut",
	"autoClosedSafety",
	"autoCloseReason",
	"autoClosedAt",
	"protectedWindows",
	"reviewRequired",
}

func (f ResolutionFlags) MarshalJSON() ([]byte, error) {
	alias := flagsAlias(f)
	if alias.Version == 0 {
		alias.Version = FlagsVersion
	}
	known, err := json.Marshal(alias)
	if err != nil {
		return nil, err
	}
	if len(f.Extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(f.Extra)+len(knownFlagKeys))
	for k, v := range f.Extra {
		merged[k] = v
	}
	var knownMap map[string]json.RawMessage
	if err := json.Unmarshal(known, &knownMap); err != nil {
		return nil, err
	}
	for k, v := range knownMap {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func (f *ResolutionFlags) UnmarshalJSON(data []byte) error {
	var alias flagsAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownFlagKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		alias.Extra = raw
	}
	if alias.Version == 0 {
		alias.Version = FlagsVersion
	}

	*f = ResolutionFlags(alias)
	return nil
}
