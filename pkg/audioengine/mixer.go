package audioengine

// Mixer sums the two engine channels sample for sample. Gain is already
// applied by each Channel.
type Mixer struct {
	a, b       *Channel
	bufA, bufB [][2]float64
}

func NewMixer(a, b *Channel) *Mixer {
	return &Mixer{a: a, b: b}
}

// Stream fills samples with A+B and always returns the full length.
func (m *Mixer) Stream(samples [][2]float64) (int, bool) {
	n := len(samples)
	if cap(m.bufA) < n {
		m.bufA = make([][2]float64, n)
		m.bufB = make([][2]float64, n)
	}
	bufA, bufB := m.bufA[:n], m.bufB[:n]

	m.a.Stream(bufA)
	m.b.Stream(bufB)

	for i := range n {
		samples[i][0] = bufA[i][0] + bufB[i][0]
		samples[i][1] = bufA[i][1] + bufB[i][1]
	}
	return n, true
}

func (m *Mixer) Err() error { return nil }
