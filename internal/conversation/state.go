package conversation

import (
	"encoding/json"
	"time"

	"github.com/RakMan09/refund-returns-agent/internal/tools"
)

// Stage tracks where a session sits in the flow. Stages are advisory
// labels for operators and transcripts; turn routing derives from the
// filled slots, not from the stage alone.
type Stage string

const (
	StageNeedIdentifier    Stage = "need_identifier"
	StageOfferAlternatives Stage = "offer_alternatives"
	StageTerminalWait      Stage = "terminal_wait"
	StageResolved          Stage = "resolved"
)

type TimelineEvent struct {
	Time   string `json:"time"`
	Event  string `json:"event"`
	Detail string `json:"detail"`
}

// State is the typed cross-turn record. It round-trips through the
// session store as JSON; field names are part of the persisted format.
type State struct {
	Stage               Stage                           `json:"stage"`
	CustomerIdentifier  string                          `json:"customer_identifier,omitempty"`
	SelectedOrderID     string                          `json:"selected_order_id,omitempty"`
	SelectedItems       []string                        `json:"selected_items"`
	Reason              string                          `json:"reason,omitempty"`
	PreferredResolution string                          `json:"preferred_resolution"`
	EvidenceUploaded    bool                            `json:"evidence_uploaded"`
	EvidenceID          string                          `json:"evidence_id,omitempty"`
	// No omitempty: a cleared verdict must marshal as an explicit null
	// so the merge patch deletes the stored key instead of keeping it.
	EvidenceValidation *tools.ValidateEvidenceResponse `json:"evidence_validation"`
	Terminal           bool                            `json:"terminal"`
	Timeline           []TimelineEvent                 `json:"timeline"`
}

func NewState() *State {
	return &State{
		Stage:               StageNeedIdentifier,
		SelectedItems:       []string{},
		PreferredResolution: "refund",
		Timeline:            []TimelineEvent{},
	}
}

// Patch is the only way turn handlers mutate state. Nil fields leave the
// current value untouched.
type Patch struct {
	Stage              *Stage
	CustomerIdentifier *string
	SelectedOrderID    *string
	SelectedItems      []string
	Reason             *string
	EvidenceUploaded   *bool
	UploadedEvidenceID *string
	Validation         *tools.ValidateEvidenceResponse
	Terminal           *bool
}

// Apply merges a patch into the state. A fresh upload always clears any
// stored verdict so a stale validation can never gate a newer file.
func (s *State) Apply(p Patch) {
	if p.Stage != nil {
		s.Stage = *p.Stage
	}
	if p.CustomerIdentifier != nil {
		s.CustomerIdentifier = *p.CustomerIdentifier
	}
	if p.SelectedOrderID != nil {
		s.SelectedOrderID = *p.SelectedOrderID
	}
	if p.SelectedItems != nil {
		s.SelectedItems = append([]string(nil), p.SelectedItems...)
	}
	if p.Reason != nil {
		s.Reason = *p.Reason
	}
	if p.EvidenceUploaded != nil {
		s.EvidenceUploaded = *p.EvidenceUploaded
	}
	if p.UploadedEvidenceID != nil {
		s.EvidenceUploaded = true
		s.EvidenceID = *p.UploadedEvidenceID
		s.EvidenceValidation = nil
	}
	if p.Validation != nil {
		s.EvidenceValidation = p.Validation
	}
	if p.Terminal != nil {
		s.Terminal = *p.Terminal
	}
}

// AppendTimeline records an audit breadcrumb on the state itself so it
// survives in the session row alongside the slots it explains.
func (s *State) AppendTimeline(now time.Time, event, detail string) {
	s.Timeline = append(s.Timeline, TimelineEvent{
		Time:   now.UTC().Format(time.RFC3339),
		Event:  event,
		Detail: detail,
	})
}

func (s *State) MarshalJSONBytes() (json.RawMessage, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func StateFromJSON(raw json.RawMessage) (*State, error) {
	state := NewState()
	if len(raw) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, err
	}
	if state.SelectedItems == nil {
		state.SelectedItems = []string{}
	}
	if state.Timeline == nil {
		state.Timeline = []TimelineEvent{}
	}
	return state, nil
}
