package pairing

import (
	"sort"

	"github.com/cpmech/gosl/graph"
)

// resolveMatching assigns heads to bodies so that the total support of the
// accepted pairs is maximal, using the Hungarian method. Body/head pairs that
// were never observed together can not be assigned.
func resolveMatching(cs *CandidateSet) *Result {
	res := &Result{Strategy: StrategyMatching}

	var rows []string
	for _, b := range cs.Bodies {
		if len(cs.ByBody[b]) > 0 {
			rows = append(rows, b)
		}
	}
	cols := make(map[string]int)
	var heads []string
	maxSupport := 0
	for _, b := range rows {
		for _, c := range cs.ByBody[b] {
			if _, ok := cols[c.Head]; !ok {
				cols[c.Head] = -1
				heads = append(heads, c.Head)
			}
			if c.Support > maxSupport {
				maxSupport = c.Support
			}
		}
	}

	claimed := make(map[string]string)
	resolved := make(map[string]Pair)
	if len(rows) > 0 {
		// Columns follow sorted head order so the assignment is reproducible.
		sort.Strings(heads)
		for j, h := range heads {
			cols[h] = j
		}

		// Cost is the support a pair gives up relative to the best pair.
		// Unobserved pairs weigh zero, so filling a slot with one never beats
		// an observed pair; they are dropped below.
		cost := make([][]float64, len(rows))
		for i, b := range rows {
			cost[i] = make([]float64, len(heads))
			for j := range cost[i] {
				cost[i][j] = float64(maxSupport)
			}
			for _, c := range cs.ByBody[b] {
				cost[i][cols[c.Head]] = float64(maxSupport - c.Support)
			}
		}

		mk := graph.Munkres{}
		mk.Init(len(rows), len(heads))
		mk.SetCostMatrix(cost)
		mk.Run()

		for i, j := range mk.Links {
			if j < 0 {
				continue
			}
			body, head := rows[i], heads[j]
			support := cs.Support(body, head)
			if support == 0 {
				continue
			}
			resolved[body] = Pair{Body: body, Head: head, Support: support}
			claimed[head] = body
		}
	}

	for _, body := range cs.Bodies {
		if p, ok := resolved[body]; ok {
			res.Pairs = append(res.Pairs, p)
			continue
		}
		msg := "no head center was ever inside it"
		if len(cs.ByBody[body]) > 0 {
			msg = "every candidate head was assigned to a body with more support"
		}
		res.Unpaired = append(res.Unpaired, Diagnostic{Kind: KindUnpairedBody, Body: body, Message: msg})
	}
	res.FreeHeads = freeHeads(cs.Heads, claimed)
	return res
}
