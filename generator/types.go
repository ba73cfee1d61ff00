package generator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CompanySize is the client headcount bracket chosen on the intake form.
type CompanySize string

const (
	SizeStartup CompanySize = "Startup (< 10 Karyawan)"
	SizeSmall   CompanySize = "Kecil (10-50 Karyawan)"
	SizeMedium  CompanySize = "Menengah (51-250 Karyawan)"
	SizeLarge   CompanySize = "Besar (> 250 Karyawan)"
)

// CompanySizes lists the accepted sizes in form order.
var CompanySizes = []CompanySize{SizeStartup, SizeSmall, SizeMedium, SizeLarge}

// FocusArea is the consulting service the proposal is about.
type FocusArea string

const (
	FocusAssessmentCenter  FocusArea = "Pusat Penilaian (Assessment Center)"
	FocusPsychologicalTest FocusArea = "Tes Psikologi (Psychological Test)"
	FocusTraining          FocusArea = "Pelatihan & Pengembangan (Training & Development)"
	FocusExecutiveSearch   FocusArea = "Pencarian Eksekutif (Executive Search)"
	FocusCounseling        FocusArea = "Konseling & Pembinaan (Counseling & Coaching)"
)

// FocusAreas lists the accepted focus areas in form order.
var FocusAreas = []FocusArea{
	FocusAssessmentCenter,
	FocusPsychologicalTest,
	FocusTraining,
	FocusExecutiveSearch,
	FocusCounseling,
}

var ErrInvalidIntake = errors.New("invalid intake")

// Intake is the client brief submitted before stage 1.
type Intake struct {
	BusinessName string      `json:"businessName" yaml:"business_name"`
	Industry     string      `json:"industry" yaml:"industry"`
	CompanySize  CompanySize `json:"companySize" yaml:"company_size"`
	FocusArea    FocusArea   `json:"focusArea" yaml:"focus_area"`
	Challenge    string      `json:"challenge" yaml:"challenge"`
}

// DefaultIntake mirrors the initial values of the intake form.
func DefaultIntake() Intake {
	return Intake{CompanySize: SizeStartup, FocusArea: FocusAssessmentCenter}
}

// Validate checks required fields and enum membership.
func (in Intake) Validate() error {
	var problems []string
	if strings.TrimSpace(in.Industry) == "" {
		problems = append(problems, "industry is required")
	}
	if strings.TrimSpace(in.Challenge) == "" {
		problems = append(problems, "challenge is required")
	}
	if !validSize(in.CompanySize) {
		problems = append(problems, fmt.Sprintf("unknown company size %q", in.CompanySize))
	}
	if !validFocus(in.FocusArea) {
		problems = append(problems, fmt.Sprintf("unknown focus area %q", in.FocusArea))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidIntake, strings.Join(problems, "; "))
	}
	return nil
}

func validSize(s CompanySize) bool {
	for _, v := range CompanySizes {
		if v == s {
			return true
		}
	}
	return false
}

func validFocus(f FocusArea) bool {
	for _, v := range FocusAreas {
		if v == f {
			return true
		}
	}
	return false
}

// Stage identifies one of the five proposal sections, 1-based.
type Stage int

const (
	StageAnalysis Stage = iota + 1
	StageModules
	StageSteps
	StageRisks
	StageProposal
)

// StageCount is the number of sections in a complete framework.
const StageCount = 5

var stageSlugs = map[Stage]string{
	StageAnalysis: "analysis",
	StageModules:  "modules",
	StageSteps:    "steps",
	StageRisks:    "risks",
	StageProposal: "proposal",
}

// Valid reports whether s is within 1..StageCount.
func (s Stage) Valid() bool { return s >= StageAnalysis && s <= StageProposal }

func (s Stage) String() string {
	if slug, ok := stageSlugs[s]; ok {
		return slug
	}
	return "stage(" + strconv.Itoa(int(s)) + ")"
}

// Title is the heading shown to the consultant.
func (s Stage) Title() string {
	if d, ok := descriptorFor(s); ok {
		return d.title
	}
	return s.String()
}

// Shape is the structure a stage's content must have.
func (s Stage) Shape() Shape {
	if d, ok := descriptorFor(s); ok {
		return d.shape
	}
	return ShapeText
}

// ParseStage accepts a number ("2") or a slug ("modules").
func ParseStage(v string) (Stage, error) {
	v = strings.TrimSpace(strings.ToLower(v))
	if n, err := strconv.Atoi(v); err == nil {
		s := Stage(n)
		if !s.Valid() {
			return 0, fmt.Errorf("stage %d out of range", n)
		}
		return s, nil
	}
	for s, slug := range stageSlugs {
		if slug == v {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", v)
}

// Shape describes the result structure requested from the model.
type Shape int

const (
	ShapeText Shape = iota
	ShapeList
	ShapeModules
)

func (s Shape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeModules:
		return "modules"
	default:
		return "text"
	}
}

// Structured reports whether the model must answer with JSON.
func (s Shape) Structured() bool { return s != ShapeText }

// ProjectModule is one deliverable in the modules section.
type ProjectModule struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Section is the content produced by one stage. Exactly one of Text, Items or
// Modules is meaningful, selected by Stage.Shape().
type Section struct {
	Stage   Stage           `json:"stage"`
	Text    string          `json:"text,omitempty"`
	Items   []string        `json:"items,omitempty"`
	Modules []ProjectModule `json:"modules,omitempty"`
}

func TextSection(stage Stage, text string) Section {
	return Section{Stage: stage, Text: text}
}

func ListSection(stage Stage, items []string) Section {
	return Section{Stage: stage, Items: append([]string{}, items...)}
}

func ModulesSection(modules []ProjectModule) Section {
	return Section{Stage: StageModules, Modules: append([]ProjectModule{}, modules...)}
}

// Shape reports the structure actually carried by the section.
func (s Section) Shape() Shape {
	switch {
	case s.Modules != nil:
		return ShapeModules
	case s.Items != nil:
		return ShapeList
	default:
		return ShapeText
	}
}

// Clone returns a deep copy.
func (s Section) Clone() Section {
	out := Section{Stage: s.Stage, Text: s.Text}
	if s.Items != nil {
		out.Items = append([]string{}, s.Items...)
	}
	if s.Modules != nil {
		out.Modules = append([]ProjectModule{}, s.Modules...)
	}
	return out
}
