package generator

// Fixed example content returned in offline mode, one value per stage.

const DummySituationalAnalysis = `
**Analisis Situasi: Efektivitas Penilaian Talenta dalam Skala Startup**

Berdasarkan profil klien yang bergerak di industri teknologi dengan skala tim di bawah 10 orang, tantangan utama yang teridentifikasi adalah kebutuhan untuk membangun **sistem penilaian (assessment center) yang valid namun tetap agile**.

Startup pada tahap ini sering kali menghadapi kesulitan dalam menyeimbangkan antara kecepatan rekrutmen/promosi dengan akurasi data psikologis kandidat. Tanpa alat ukur yang terstandarisasi, risiko *bad hire* meningkat, yang dampaknya sangat signifikan pada tim kecil.

Dari sudut pandang Psikologi Industri & Organisasi, pendekatan yang disarankan adalah merancang assessment center yang *lean*, berfokus pada kompetensi inti yang paling kritikal untuk pertumbuhan startup (seperti adaptabilitas, *growth mindset*, dan *problem solving*), serta menggunakan metode yang efisien secara biaya dan waktu.
`

var DummyProjectModules = []ProjectModule{
	{
		Title:       "Pemetaan Kompetensi & Desain Assessment",
		Description: "**Fase ini berfokus pada fondasi penilaian.** Kami akan mengidentifikasi 3-5 kompetensi kunci (Competency Dictionary) yang selaras dengan nilai dan target bisnis startup Anda. Selanjutnya, kami merancang matriks penilaian yang memetakan kompetensi tersebut ke alat ukur yang paling efektif (misalnya: wawancara berbasis perilaku dan studi kasus singkat).",
	},
	{
		Title:       "Pengembangan Alat Ukur & Simulasi",
		Description: "**Mengembangkan materi tes yang kontekstual.** Tim kami akan membuat materi simulasi (role-play atau in-tray exercise) yang mencerminkan tantangan nyata di industri Anda. Termasuk di dalamnya adalah panduan wawancara terstruktur dan rubrik penilaian (scoring guide) untuk memastikan objektivitas asesor.",
	},
	{
		Title:       "Pelaksanaan Pilot Assessment",
		Description: "**Uji coba terbatas.** Melakukan pilot project assessment terhadap 1-2 incumbent atau kandidat untuk menguji validitas alat ukur dan kelancaran proses logistik. Evaluasi dari pilot ini akan digunakan untuk menyempurnakan alur assessment sebelum implementasi penuh.",
	},
}

var DummyImplementationSteps = []string{
	"**Minggu 1: Discovery & Design**. Wawancara stakeholder untuk finalisasi model kompetensi.",
	"**Minggu 2: Development**. Penyusunan alat tes, simulasi, dan rubrik penilaian.",
	"**Minggu 3: Pilot & Refinement**. Uji coba alat ukur dan revisi berdasarkan feedback.",
	"**Minggu 4: Handover & Training**. Penyerahan panduan lengkap dan training singkat untuk user/asesor internal.",
}

var DummyPotentialRisks = []string{
	"**Risiko**: Bias penilai (asesor) internal yang belum berpengalaman. **Mitigasi**: Menyediakan panduan penilaian (scoring guide) yang sangat rinci dan sesi kalibrasi penilaian.",
	"**Risiko**: Kandidat merasa proses terlalu panjang/berat (candidate experience buruk). **Mitigasi**: Memastikan durasi total assessment tidak lebih dari setengah hari kerja dan memberikan komunikasi yang transparan di awal.",
}

const DummyProposal = `
# Proposal Pengembangan Pusat Penilaian (Assessment Center)

**Pendahuluan**
Yth. Pimpinan [Nama Bisnis],
Kami memahami bahwa di fase pertumbuhan awal, setiap keputusan rekrutmen memiliki dampak besar. Proposal ini dirancang untuk menjawab tantangan Anda dalam membangun sistem penilaian yang akurat namun tetap efisien, memastikan Anda mendapatkan talenta terbaik yang siap tumbuh bersama perusahaan.

**Ruang Lingkup Proyek**
Kami mengusulkan pengembangan Assessment Center yang 'lean' dan terfokus, mencakup:
1. **Pemetaan Kompetensi**: Mendefinisikan DNA sukses talenta di perusahaan Anda.
2. **Pengembangan Alat Ukur**: Membuat simulasi dan panduan wawancara yang relevan dengan industri.
3. **Pilot & Validasi**: Memastikan alat ukur berfungsi efektif sebelum digunakan secara luas.

**Tahapan Implementasi**
Kami akan menjalankan proyek ini dalam waktu 4 minggu, dimulai dari fase desain hingga serah terima panduan lengkap. Pendekatan kami yang kolaboratif memastikan transfer pengetahuan terjadi, sehingga tim Anda dapat menjalankan sistem ini secara mandiri ke depannya.

**Mitigasi Risiko**
Kami menyadari potensi bias subjektif dalam penilaian. Oleh karena itu, kami menyertakan rubrik penilaian terstandarisasi dan sesi kalibrasi sebagai bagian integral dari deliverable kami.

**Penutup**
Investasi pada sistem penilaian yang tepat sejak dini adalah landasan bagi budaya kinerja tinggi. Kami siap mendiskusikan detail langkah selanjutnya untuk memulai transformasi proses seleksi Anda.

Hormat kami,
Magnapenta Consulting
`
