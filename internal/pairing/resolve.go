package pairing

import (
	"fmt"
	"sort"
	"strings"
)

// Strategy selects how conflicting candidates are resolved.
type Strategy string

const (
	// StrategyPasses repeats a greedy elimination sweep a fixed number of times.
	StrategyPasses Strategy = "passes"
	// StrategyMatching solves a maximum-support bipartite assignment.
	StrategyMatching Strategy = "matching"
)

// TieBreak decides what happens to a body still tied after the last pass.
type TieBreak string

const (
	// TieBreakNone leaves tied bodies unpaired for a reviewer to decide.
	TieBreakNone TieBreak = "none"
	// TieBreakLowestID gives a tied body the lexicographically lowest free head.
	TieBreakLowestID TieBreak = "lowest-id"
)

// DefaultPasses is enough for the chains of ties seen in practice to settle.
const DefaultPasses = 3

// Options configures Resolve.
type Options struct {
	Strategy Strategy
	Passes   int
	TieBreak TieBreak
}

// DefaultOptions returns the settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{Strategy: StrategyPasses, Passes: DefaultPasses, TieBreak: TieBreakNone}
}

// Validate checks that every option has a known value.
func (o Options) Validate() error {
	switch o.Strategy {
	case StrategyPasses, StrategyMatching:
	default:
		return fmt.Errorf("unknown strategy %q (use %q or %q)", o.Strategy, StrategyPasses, StrategyMatching)
	}
	switch o.TieBreak {
	case TieBreakNone, TieBreakLowestID:
	default:
		return fmt.Errorf("unknown tie-break %q (use %q or %q)", o.TieBreak, TieBreakNone, TieBreakLowestID)
	}
	if o.Passes < 1 {
		return fmt.Errorf("passes must be >= 1, got %d", o.Passes)
	}
	return nil
}

// Pair is a resolved body/head association.
type Pair struct {
	Body    string
	Head    string
	Support int
}

// Result is the outcome of Resolve. No body and no head appears in more than one pair.
type Result struct {
	Pairs     []Pair       // sorted by body
	Unpaired  []Diagnostic // one KindUnpairedBody entry per body without a head
	FreeHeads []string     // heads no body claimed, sorted
	Strategy  Strategy
	PassesRun int // sweeps that accepted at least one pair
}

// Resolve turns candidates into a one-to-one body/head mapping.
//
// With StrategyPasses each body looks only at its leading candidates (those
// sharing its highest support). A single leader whose head is still free is
// accepted. When several leaders tie, the ones whose head another body has
// already taken are dropped first, and the body is accepted only if exactly
// one remains. Bodies are visited by decreasing leading support, then by
// featureId, and the sweep repeats so that a head taken late in one pass can
// unblock a tied body visited earlier.
func Resolve(cs *CandidateSet, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Strategy == StrategyMatching {
		return resolveMatching(cs), nil
	}
	return resolvePasses(cs, opts), nil
}

func resolvePasses(cs *CandidateSet, opts Options) *Result {
	leaders := make(map[string][]Candidate, len(cs.ByBody))
	for body := range cs.ByBody {
		leaders[body] = cs.Leaders(body)
	}
	order := visitOrder(cs.Bodies, leaders)

	claimed := make(map[string]string) // head -> body
	resolved := make(map[string]Pair)
	accept := func(c Candidate) {
		resolved[c.Body] = Pair{Body: c.Body, Head: c.Head, Support: c.Support}
		claimed[c.Head] = c.Body
	}

	res := &Result{Strategy: StrategyPasses}
	for pass := 0; pass < opts.Passes; pass++ {
		progressed := false
		for _, body := range order {
			if _, done := resolved[body]; done {
				continue
			}
			tied := leaders[body]
			if len(tied) > 1 {
				tied = unclaimed(tied, claimed)
			}
			if len(tied) != 1 {
				continue
			}
			if _, taken := claimed[tied[0].Head]; taken {
				continue
			}
			accept(tied[0])
			progressed = true
		}
		if !progressed {
			break
		}
		res.PassesRun = pass + 1
	}

	if opts.TieBreak == TieBreakLowestID {
		for _, body := range order {
			if _, done := resolved[body]; done {
				continue
			}
			tied := unclaimed(leaders[body], claimed)
			if len(tied) < 2 {
				continue
			}
			sort.Slice(tied, func(i, j int) bool { return tied[i].Head < tied[j].Head })
			accept(tied[0])
		}
	}

	for _, body := range cs.Bodies {
		if p, ok := resolved[body]; ok {
			res.Pairs = append(res.Pairs, p)
			continue
		}
		res.Unpaired = append(res.Unpaired, Diagnostic{
			Kind:    KindUnpairedBody,
			Body:    body,
			Message: unpairedReason(leaders[body], claimed),
		})
	}
	res.FreeHeads = freeHeads(cs.Heads, claimed)
	return res
}

// visitOrder sorts bodies by decreasing leading support, then by featureId.
// Bodies without candidates are left out.
func visitOrder(bodies []string, leaders map[string][]Candidate) []string {
	var order []string
	for _, b := range bodies {
		if len(leaders[b]) > 0 {
			order = append(order, b)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return leaders[order[i]][0].Support > leaders[order[j]][0].Support
	})
	return order
}

func unclaimed(cands []Candidate, claimed map[string]string) []Candidate {
	var out []Candidate
	for _, c := range cands {
		if _, taken := claimed[c.Head]; !taken {
			out = append(out, c)
		}
	}
	return out
}

func unpairedReason(tied []Candidate, claimed map[string]string) string {
	if len(tied) == 0 {
		return "no head center was ever inside it"
	}
	if len(tied) == 1 {
		c := tied[0]
		return fmt.Sprintf("its best head %s (%d frames) is paired with body %s", c.Head, c.Support, claimed[c.Head])
	}
	free := unclaimed(tied, claimed)
	heads := make([]string, len(tied))
	for i, c := range tied {
		heads[i] = c.Head
	}
	if len(free) == 0 {
		return fmt.Sprintf("all tied heads (%s) are paired with other bodies", strings.Join(heads, ", "))
	}
	return fmt.Sprintf("tied between heads %s with %d frames each", strings.Join(heads, ", "), tied[0].Support)
}

func freeHeads(heads []string, claimed map[string]string) []string {
	var out []string
	for _, h := range heads {
		if _, taken := claimed[h]; !taken {
			out = append(out, h)
		}
	}
	return out
}
