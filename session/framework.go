package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"proposal_assistant/generator"
)

var (
	ErrInvalidStage  = errors.New("invalid stage")
	ErrShapeMismatch = errors.New("section shape does not match stage")
)

// Framework accumulates the sections of one proposal, keyed by stage.
// The zero value is empty and ready to use.
type Framework struct {
	sections [generator.StageCount]*generator.Section
}

// Merge stores sec under its stage, replacing any previous content.
func (f *Framework) Merge(sec generator.Section) error {
	if !sec.Stage.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStage, int(sec.Stage))
	}
	if want, got := sec.Stage.Shape(), sec.Shape(); want != got {
		return fmt.Errorf("%w: %s expects %s, got %s", ErrShapeMismatch, sec.Stage, want, got)
	}
	c := sec.Clone()
	f.sections[int(sec.Stage)-1] = &c
	return nil
}

// Clear drops every section.
func (f *Framework) Clear() {
	f.sections = [generator.StageCount]*generator.Section{}
}

func (f Framework) Has(stage generator.Stage) bool {
	return stage.Valid() && f.sections[int(stage)-1] != nil
}

// Section returns a copy of the stage's content.
func (f Framework) Section(stage generator.Stage) (generator.Section, bool) {
	if !f.Has(stage) {
		return generator.Section{}, false
	}
	return f.sections[int(stage)-1].Clone(), true
}

// HasPrefix reports whether sections 1..n are all present.
func (f Framework) HasPrefix(n int) bool {
	if n > generator.StageCount {
		return false
	}
	for i := 0; i < n; i++ {
		if f.sections[i] == nil {
			return false
		}
	}
	return true
}

// Sections returns copies of the present sections in stage order.
func (f Framework) Sections() []generator.Section {
	var out []generator.Section
	for _, s := range f.sections {
		if s != nil {
			out = append(out, s.Clone())
		}
	}
	return out
}

// Len is the number of sections present.
func (f Framework) Len() int {
	n := 0
	for _, s := range f.sections {
		if s != nil {
			n++
		}
	}
	return n
}

// Proposal returns the final proposal text, if generated.
func (f Framework) Proposal() (string, bool) {
	s, ok := f.Section(generator.StageProposal)
	return s.Text, ok
}

// Clone returns an independent copy.
func (f Framework) Clone() Framework {
	var out Framework
	for i, s := range f.sections {
		if s != nil {
			c := s.Clone()
			out.sections[i] = &c
		}
	}
	return out
}

// frameworkJSON keeps the field names the front-end already renders.
type frameworkJSON struct {
	SituationalAnalysis *string                   `json:"situationalAnalysis,omitempty"`
	ProjectModules      []generator.ProjectModule `json:"projectModules,omitempty"`
	ImplementationSteps []string                  `json:"implementationSteps,omitempty"`
	PotentialRisks      []string                  `json:"potentialRisks,omitempty"`
	Proposal            *string                   `json:"proposal,omitempty"`
}

func (f Framework) MarshalJSON() ([]byte, error) {
	var out frameworkJSON
	if s, ok := f.Section(generator.StageAnalysis); ok {
		out.SituationalAnalysis = &s.Text
	}
	if s, ok := f.Section(generator.StageModules); ok {
		out.ProjectModules = s.Modules
	}
	if s, ok := f.Section(generator.StageSteps); ok {
		out.ImplementationSteps = s.Items
	}
	if s, ok := f.Section(generator.StageRisks); ok {
		out.PotentialRisks = s.Items
	}
	if s, ok := f.Section(generator.StageProposal); ok {
		out.Proposal = &s.Text
	}
	return json.Marshal(out)
}

func (f *Framework) UnmarshalJSON(data []byte) error {
	var in frameworkJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	f.Clear()
	var secs []generator.Section
	if in.SituationalAnalysis != nil {
		secs = append(secs, generator.TextSection(generator.StageAnalysis, *in.SituationalAnalysis))
	}
	if in.ProjectModules != nil {
		secs = append(secs, generator.ModulesSection(in.ProjectModules))
	}
	if in.ImplementationSteps != nil {
		secs = append(secs, generator.ListSection(generator.StageSteps, in.ImplementationSteps))
	}
	if in.PotentialRisks != nil {
		secs = append(secs, generator.ListSection(generator.StageRisks, in.PotentialRisks))
	}
	if in.Proposal != nil {
		secs = append(secs, generator.TextSection(generator.StageProposal, *in.Proposal))
	}
	for _, s := range secs {
		if err := f.Merge(s); err != nil {
			return err
		}
	}
	return nil
}
