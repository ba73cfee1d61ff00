package generator

import (
	"fmt"
	"strings"
)

// descriptor holds everything that differs between the five stages.
type descriptor struct {
	stage Stage
	title string
	// name is how the section is referred to inside refinement prompts.
	name     string
	shape    Shape
	context  func(Request) (string, error)
	initial  string
	refine   string
	fallback func() Section
}

var descriptors = []descriptor{
	{
		stage:   StageAnalysis,
		title:   "1. Analisis Situasi",
		name:    "Analisis Situasi Klien",
		shape:   ShapeText,
		context: analysisContext,
		initial: "Buatkan **Draf Analisis Situasi Klien** untuk disertakan dalam proposal atau laporan awal. " +
			"Fokus pada 'problem statement' dari sudut pandang Psikologi Industri & Organisasi. " +
			"Sajikan dalam beberapa paragraf yang jelas.",
		refine: "Buatkan versi BARU dari analisis situasi berdasarkan instruksi di atas. " +
			"Pastikan output tetap mengikuti gaya penulisan yang diminta (profesional, to-the-point, format tebal untuk judul/poin penting, dan spasi antar paragraf).",
		fallback: func() Section { return TextSection(StageAnalysis, DummySituationalAnalysis) },
	},
	{
		stage:   StageModules,
		title:   "2. Modul Proyek",
		name:    "Modul Proyek",
		shape:   ShapeModules,
		context: modulesContext,
		initial: "Buatkan **Draf Modul Proyek**. Rancang serangkaian modul proyek yang dapat diimplementasikan. " +
			"Setiap modul harus memiliki judul yang jelas (seperti nama deliverable) dan deskripsi rinci tentang apa yang tercakup, metodologi, dan hasil yang diharapkan.",
		refine: "Buatkan versi BARU dari 'Modul Proyek' berdasarkan instruksi di atas. " +
			"Setiap modul harus memiliki judul yang jelas dan deskripsi rinci. Pastikan output akhir adalah JSON array yang valid sesuai skema.",
		fallback: func() Section { return ModulesSection(DummyProjectModules) },
	},
	{
		stage:   StageSteps,
		title:   "3. Langkah Implementasi",
		name:    "Langkah-langkah Implementasi Proyek",
		shape:   ShapeList,
		context: stepsContext,
		initial: "Buatkan draf **Langkah-langkah Implementasi Proyek** secara garis besar. " +
			"Berikan 3-5 langkah kunci dari kick-off hingga penutupan proyek.",
		refine: "Buatkan versi BARU dari 'Langkah-langkah Implementasi Proyek' berdasarkan instruksi di atas. " +
			"Jaga agar tetap ringkas dan berikan 3-5 langkah kunci. Pastikan output akhir adalah JSON array yang valid.",
		fallback: func() Section { return ListSection(StageSteps, DummyImplementationSteps) },
	},
	{
		stage:   StageRisks,
		title:   "4. Manajemen Risiko",
		name:    "Potensi Risiko",
		shape:   ShapeList,
		context: risksContext,
		initial: "Identifikasi **Potensi Risiko** dari sisi proyek (misal: resistensi dari stakeholder, data tidak lengkap) " +
			"dan sertakan saran mitigasi awal untuk setiap risiko. " +
			"Format setiap poin sebagai: \"**Risiko**: [deskripsi risiko]. **Mitigasi**: [saran mitigasi].\"",
		refine: "Buatkan versi BARU dari 'Potensi Risiko' berdasarkan instruksi di atas. " +
			"Pertahankan format \"**Risiko**: [deskripsi]. **Mitigasi**: [saran].\" untuk setiap poin. Pastikan output akhir adalah JSON array yang valid.",
		fallback: func() Section { return ListSection(StageRisks, DummyPotentialRisks) },
	},
	{
		stage:   StageProposal,
		title:   "5. Draf Proposal Resmi",
		name:    "Draf Proposal",
		shape:   ShapeText,
		context: proposalContext,
		initial: "**INSTRUKSI:**\n" +
			"Tulis sebuah **Draf Proposal Resmi** yang kohesif, profesional, dan meyakinkan. " +
			"Mulailah dengan pendahuluan singkat yang menyapa klien dan merangkum pemahaman Anda tentang tantangan mereka. " +
			"Kemudian, integrasikan semua bagian dari kerangka kerja di atas ke dalam narasi yang mengalir dengan judul-judul bagian yang jelas " +
			"(misalnya, Pendahuluan, Ruang Lingkup Proyek, Tahapan Implementasi, Mitigasi Risiko). " +
			"Akhiri dengan penutup yang kuat yang mendorong langkah selanjutnya. Gunakan bahasa yang berorientasi pada klien.",
		refine: "Buatkan versi BARU dari proposal berdasarkan instruksi di atas. " +
			"Pastikan output adalah dokumen yang utuh, profesional, dan siap dikirim ke klien, serta mengikuti gaya penulisan yang diminta.",
		fallback: func() Section { return TextSection(StageProposal, DummyProposal) },
	},
}

func descriptorFor(s Stage) (descriptor, bool) {
	if !s.Valid() {
		return descriptor{}, false
	}
	return descriptors[int(s)-1], true
}

// Fallback returns the fixed example content used in offline mode.
func Fallback(s Stage) (Section, bool) {
	d, ok := descriptorFor(s)
	if !ok {
		return Section{}, false
	}
	return d.fallback(), true
}

func analysisContext(req Request) (string, error) {
	var sb strings.Builder
	sb.WriteString("KONTEKS KLIEN:\n")
	sb.WriteString(clientInfo(req.Intake))
	sb.WriteString("\nINSTRUKSI KHUSUS UNTUK FOKUS LAYANAN:\n")
	sb.WriteString(FocusContext(req.Intake.FocusArea))
	return sb.String(), nil
}

func modulesContext(req Request) (string, error) {
	analysis, err := req.prior(StageAnalysis)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("Berdasarkan analisis situasi berikut:\n")
	sb.WriteString("--- ANALISIS SITUASI ---\n")
	sb.WriteString(strings.TrimSpace(analysis.Text))
	sb.WriteString("\n---\n\n")
	sb.WriteString("Dan informasi klien ini:\n")
	sb.WriteString(clientInfo(req.Intake))
	return sb.String(), nil
}

func stepsContext(req Request) (string, error) {
	analysis, err := req.prior(StageAnalysis)
	if err != nil {
		return "", err
	}
	modules, err := req.prior(StageModules)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("Dengan mempertimbangkan analisis situasi dan modul proyek yang telah dirancang:\n")
	sb.WriteString("--- ANALISIS SITUASI ---\n")
	sb.WriteString(strings.TrimSpace(analysis.Text))
	sb.WriteString("\n---\n")
	sb.WriteString("--- MODUL PROYEK ---\n")
	sb.WriteString(renderModules(modules.Modules, ": ", "\n"))
	sb.WriteString("\n---\n\n")
	sb.WriteString("Dan informasi klien ini:\n")
	sb.WriteString(clientInfo(req.Intake))
	return sb.String(), nil
}

func risksContext(req Request) (string, error) {
	analysis, err := req.prior(StageAnalysis)
	if err != nil {
		return "", err
	}
	modules, err := req.prior(StageModules)
	if err != nil {
		return "", err
	}
	steps, err := req.prior(StageSteps)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("Melihat keseluruhan rencana proyek sejauh ini:\n")
	sb.WriteString(fmt.Sprintf("- Analisis: %s\n", strings.TrimSpace(analysis.Text)))
	sb.WriteString(fmt.Sprintf("- Modul: %s\n", renderModules(modules.Modules, ": ", "\n")))
	sb.WriteString(fmt.Sprintf("- Rencana Implementasi: %s\n", strings.Join(steps.Items, ", ")))
	sb.WriteString("- Info Klien:\n")
	sb.WriteString(clientInfo(req.Intake))
	return sb.String(), nil
}

func proposalContext(req Request) (string, error) {
	analysis, err := req.prior(StageAnalysis)
	if err != nil {
		return "", err
	}
	modules, err := req.prior(StageModules)
	if err != nil {
		return "", err
	}
	steps, err := req.prior(StageSteps)
	if err != nil {
		return "", err
	}
	risks, err := req.prior(StageRisks)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("Anda adalah konsultan senior di Magnapenta. ")
	sb.WriteString("Tugas Anda adalah menulis draf proposal resmi untuk klien berdasarkan kerangka kerja yang telah disiapkan secara internal.\n\n")
	sb.WriteString("**KERANGKA KERJA PROYEK INTERNAL:**\n---\n")
	sb.WriteString("**1. Analisis Situasi:**\n")
	sb.WriteString(strings.TrimSpace(analysis.Text))
	sb.WriteString("\n\n**2. Modul Proyek yang Diusulkan:**\n")
	sb.WriteString(renderModules(modules.Modules, ":\n", "\n\n"))
	sb.WriteString("\n\n**3. Garis Besar Langkah Implementasi:**\n")
	sb.WriteString(renderBullets(steps.Items))
	sb.WriteString("\n\n**4. Manajemen Risiko:**\n")
	sb.WriteString(renderBullets(risks.Items))
	sb.WriteString("\n---\n\n")
	sb.WriteString("**INFORMASI KLIEN:**\n")
	sb.WriteString(clientInfo(req.Intake))
	return sb.String(), nil
}
