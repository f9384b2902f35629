package filter

import "fmt"

// Mode selects which global-sum criterion governs acceptance.
type Mode int

const (
	// ModeMHT accepts on missing transverse momentum only.
	ModeMHT Mode = 1
	// ModeMeff accepts on effective mass (MHT + HT).
	ModeMeff Mode = 2
	// ModePT12 accepts on the momentum of the two leading qualifying jets.
	ModePT12 Mode = 3
	// ModeHT accepts on the scalar jet sum only.
	ModeHT Mode = 4
	// ModeHTAlphaT accepts on HT and the approximate AlphaT together.
	ModeHTAlphaT Mode = 5
)

var modeNames = map[Mode]string{
	ModeMHT:      "mht",
	ModeMeff:     "meff",
	ModePT12:     "pt12",
	ModeHT:       "ht",
	ModeHTAlphaT: "ht_alphat",
}

// String returns the short mode name used in logs and the result store.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Valid reports whether m is one of the five defined modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// NeedsMHTSelection reports whether the mode uses the second (MHT) selection
// pair, and therefore requires two threshold/eta entries.
func (m Mode) NeedsMHTSelection() bool {
	return m == ModeMHT || m == ModeMeff || m == ModeHTAlphaT
}

// forcesEt reports whether the mode scores on transverse energy regardless
// of the usePt flag.
func (m Mode) forcesEt() bool {
	return m == ModePT12
}
