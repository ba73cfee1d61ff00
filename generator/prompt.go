package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SystemInstruction is the fixed persona/style sent with every request.
const SystemInstruction = "Anda adalah 'Magnapenta AI Project Assistant', AI asisten internal untuk konsultan Magnapenta. " +
	"Tugas Anda adalah membantu konsultan membuat draf kerangka kerja proyek. " +
	"Gaya Anda profesional, to-the-point, dan terstruktur. " +
	"Gunakan pemformatan tebal dengan mengapit teks di antara **asterisk ganda** untuk judul atau poin penting. " +
	"Selalu gunakan baris baru untuk memisahkan paragraf agar mudah dibaca. " +
	"JANGAN gunakan format markdown lain seperti # atau -. " +
	"Anda berbicara kepada kolega (konsultan), bukan klien."

var ErrMissingPrior = errors.New("prior section missing")

// Prompt is what gets sent to the model for one stage. A structured Shape
// asks the provider for JSON matching the shape's schema.
type Prompt struct {
	Stage  Stage
	System string
	User   string
	Shape  Shape
}

// Refinement carries the consultant's instruction and the content being replaced.
type Refinement struct {
	Instruction string
	Previous    Section
}

// Request asks for one stage. Prior holds the sections generated so far;
// stage K needs sections 1..K-1 to be present.
type Request struct {
	Stage      Stage
	Intake     Intake
	Prior      []Section
	Refinement *Refinement
}

// Refining reports whether the request replaces an existing section.
func (r Request) Refining() bool {
	return r.Refinement != nil && strings.TrimSpace(r.Refinement.Instruction) != ""
}

func (r Request) prior(stage Stage) (Section, error) {
	for _, s := range r.Prior {
		if s.Stage == stage {
			return s, nil
		}
	}
	return Section{}, fmt.Errorf("%w: %s needed for %s", ErrMissingPrior, stage, r.Stage)
}

// BuildPrompt assembles the prompt for req. Initial generation combines the
// client context, the stage's own context and its structure directive;
// refinement additionally embeds the previous content and the instruction.
func BuildPrompt(req Request) (Prompt, error) {
	d, ok := descriptorFor(req.Stage)
	if !ok {
		return Prompt{}, fmt.Errorf("unknown stage %d", int(req.Stage))
	}
	base, err := d.context(req)
	if err != nil {
		return Prompt{}, err
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(base))
	sb.WriteString("\n\n")
	if req.Refining() {
		sb.WriteString(fmt.Sprintf("Anda diberi tugas untuk MENYEMPURNAKAN draf '%s' yang sudah ada.\n\n", d.name))
		if d.shape == ShapeModules {
			sb.WriteString("DRAF ASLI (dalam format JSON):\n")
		} else {
			sb.WriteString("DRAF ASLI:\n")
		}
		sb.WriteString("---\n")
		sb.WriteString(renderPrevious(req.Refinement.Previous))
		sb.WriteString("\n---\n\n")
		sb.WriteString(fmt.Sprintf("INSTRUKSI PENYEMPURNAAN DARI KONSULTAN: \"%s\"\n\n", strings.TrimSpace(req.Refinement.Instruction)))
		sb.WriteString(d.refine)
	} else {
		sb.WriteString(d.initial)
	}

	return Prompt{
		Stage:  req.Stage,
		System: SystemInstruction,
		User:   sb.String(),
		Shape:  d.shape,
	}, nil
}

func clientInfo(in Intake) string {
	name := strings.TrimSpace(in.BusinessName)
	if name == "" {
		name = "Tidak disebutkan"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("- Nama Klien: %s\n", name))
	sb.WriteString(fmt.Sprintf("- Industri Klien: %s\n", in.Industry))
	sb.WriteString(fmt.Sprintf("- Ukuran Perusahaan Klien: %s\n", in.CompanySize))
	sb.WriteString(fmt.Sprintf("- Layanan yang Diberikan: %s\n", in.FocusArea))
	sb.WriteString(fmt.Sprintf("- Brief/Tantangan Klien: \"%s\"\n", in.Challenge))
	return sb.String()
}

var focusTemplates = map[FocusArea]string{
	FocusAssessmentCenter:  "Rancang draf untuk Pusat Penilaian (Assessment Center). Detailkan: 1. Kompetensi kunci yang akan diukur. 2. Rekomendasi simulasi/tools. 3. Garis besar alur proses. 4. Format Laporan Hasil.",
	FocusPsychologicalTest: "Rancang draf rekomendasi Tes Psikologi. Detailkan: 1. Baterai tes yang relevan. 2. Justifikasi pemilihan alat tes. 3. Penjelasan output. 4. Poin-poin etika dan kerahasiaan data.",
	FocusTraining:          "Rancang draf outline program Pelatihan. Detailkan: 1. Kerangka Analisis Kebutuhan Pelatihan. 2. Desain dan outline modul pelatihan. 3. Rekomendasi metode penyampaian. 4. Metrik pengukuran efektivitas.",
	FocusExecutiveSearch:   "Rancang draf strategi Pencarian Eksekutif. Detailkan: 1. Proses pendefinisian profil kandidat. 2. Strategi sourcing. 3. Tahapan proses seleksi. 4. Metodologi untuk memastikan cultural fit.",
	FocusCounseling:        "Rancang draf program Konseling atau Pembinaan. Detailkan: 1. Perbedaan tujuan konseling dan coaching. 2. Kerangka kerja program. 3. Contoh topik yang relevan. 4. Mekanisme menjaga kerahasiaan.",
}

const defaultFocusTemplate = "Berikan analisis dan rekomendasi umum dari sudut pandang psikologi industri dan organisasi."

// FocusContext returns the instructional template for a focus area.
func FocusContext(f FocusArea) string {
	if t, ok := focusTemplates[f]; ok {
		return t
	}
	return defaultFocusTemplate
}

func renderPrevious(s Section) string {
	switch s.Shape() {
	case ShapeModules:
		raw, err := json.Marshal(s.Modules)
		if err != nil {
			return renderModules(s.Modules, ": ", "\n")
		}
		return string(raw)
	case ShapeList:
		return renderBullets(s.Items)
	default:
		return strings.TrimSpace(s.Text)
	}
}

func renderModules(mods []ProjectModule, sep, join string) string {
	lines := make([]string, 0, len(mods))
	for _, m := range mods {
		lines = append(lines, fmt.Sprintf("**%s**%s%s", m.Title, sep, m.Description))
	}
	return strings.Join(lines, join)
}

func renderBullets(items []string) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, "- "+it)
	}
	return strings.Join(lines, "\n")
}
