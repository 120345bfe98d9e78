package contenthub

// CandidateSource records which step of the strategy produced a candidate.
type CandidateSource int

const (
	SourceHint CandidateSource = iota
	SourceRegistry
	SourceRegistered
	SourceFallback
)

func (s CandidateSource) String() string {
	switch s {
	case SourceHint:
		return "hint"
	case SourceRegistry:
		return "registry"
	case SourceRegistered:
		return "registered"
	case SourceFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Candidate is one ordered trial of the resolution strategy.
type Candidate struct {
	Chain  Chain           `json:"chain"`
	Type   ContentType     `json:"type"`
	Source CandidateSource `json:"-"`
}

// DefaultFallbackTypes covers content types recognised by convention rather
// than registration.
var DefaultFallbackTypes = []ContentType{TypeBook, TypeAlexandriaBook, TypeNFT, TypePublication}

// Query is an ambiguous lookup: an address with optional chain and type hints.
type Query struct {
	Address string
	// Chain is empty or "all" for every supported chain
	Chain string
	// TypeHint is tried first when set
	TypeHint ContentType
	// PreferredTypes are tried right after the registry record, before the
	// registered types. Book lookups use it to favour book encodings.
	PreferredTypes []ContentType
}

// Planner turns a Query into an ordered candidate list.
type Planner struct {
	registry      *Registry
	registered    []ContentType
	fallbackTypes []ContentType
}

// NewPlanner returns a Planner. registry may be nil.
func NewPlanner(registry *Registry, registered, fallback []ContentType) *Planner {
	return &Planner{registry: registry, registered: registered, fallbackTypes: fallback}
}

// Scope returns the chains a query covers.
func Scope(chain string) ([]Chain, error) {
	c, err := ParseChain(chain)
	if err != nil {
		return nil, err
	}
	if c == "" {
		out := make([]Chain, len(SupportedChains))
		copy(out, SupportedChains)
		return out, nil
	}
	return []Chain{c}, nil
}

// Plan returns every candidate for q in probe order, each (chain, type) pair
// once at its earliest position.
func (p *Planner) Plan(q Query) ([]Candidate, error) {
	if NormalizeAddress(q.Address) == "" {
		return nil, missing("address")
	}
	scope, err := Scope(q.Chain)
	if err != nil {
		return nil, err
	}
	explicit, _ := ParseChain(q.Chain)

	var plan []Candidate
	seen := make(map[Candidate]bool)
	add := func(chain Chain, t ContentType, src CandidateSource) {
		if t == "" {
			return
		}
		key := Candidate{Chain: chain, Type: t}
		if seen[key] {
			return
		}
		seen[key] = true
		plan = append(plan, Candidate{Chain: chain, Type: t, Source: src})
	}
	sweep := func(types []ContentType, src CandidateSource) {
		for _, t := range types {
			for _, c := range scope {
				add(c, t, src)
			}
		}
	}

	if q.TypeHint != "" {
		sweep([]ContentType{q.TypeHint}, SourceHint)
	}

	if rec, ok := p.registry.Find(q.Address, explicit); ok {
		chain := rec.Chain
		if explicit != "" {
			chain = explicit
		}
		if chain.IsSupported() {
			add(chain, rec.Type, SourceRegistry)
		}
	}

	sweep(q.PreferredTypes, SourceRegistered)
	sweep(p.registered, SourceRegistered)
	sweep(p.fallbackTypes, SourceFallback)

	return plan, nil
}
