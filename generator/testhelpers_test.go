package generator

func testIntake() Intake {
	return Intake{
		Industry:    "Perbankan",
		CompanySize: SizeStartup,
		FocusArea:   FocusPsychologicalTest,
		Challenge:   "Reduce turnover",
	}
}

// framework returns fallback sections for stages 1..n.
func framework(n int) []Section {
	var out []Section
	for s := StageAnalysis; int(s) <= n; s++ {
		sec, _ := Fallback(s)
		out = append(out, sec)
	}
	return out
}
