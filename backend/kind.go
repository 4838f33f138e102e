package backend

// Kind identifies a logging backend family.
type Kind int

const (
	// Standard is the dict-configured backend built on log/slog. It is always
	// available.
	Standard Kind = iota
	// HighPerformance is the optional dict-configured backend built on zap.
	HighPerformance
	// Structured is the optional processor-pipeline backend. It always layers
	// on top of one dict-configured backend for its formatter chain.
	Structured
)

func (k Kind) String() string {
	switch k {
	case Standard:
		return "standard"
	case HighPerformance:
		return "high-performance"
	case Structured:
		return "structured"
	default:
		return "unknown"
	}
}

// Set records which backend kinds the probe found registered.
type Set map[Kind]bool

// Has reports whether the set contains the given kind.
func (s Set) Has(k Kind) bool {
	return s[k]
}
