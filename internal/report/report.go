// Package report aggregates the loaded collections into the summary
// reports shown to administrators. Every function is read only.
package report

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/seguros/internal/model"
)

// ClientValue is the insured value summed over a client's policies.
type ClientValue struct {
	Total decimal.Decimal
	CPF   model.CPF
	Name  string
}

// TypeCount is the number of policies of one coverage type.
type TypeCount struct {
	Type  model.CoverageType
	Count int
}

// StatusShare is the number of claims in one status and its share of all
// claims, as a percentage.
type StatusShare struct {
	Status  model.ClaimStatus
	Count   int
	Percent float64
}

// ClaimSummary groups claims by status. Total also counts claims whose
// status is not one of the known ones.
type ClaimSummary struct {
	Statuses []StatusShare
	Total    int
}

// RankEntry is one line of the client ranking.
type RankEntry struct {
	CPF      model.CPF
	Name     string
	Position int
	Policies int
}

// ClientLabel returns the client name for cpf, or a placeholder carrying
// the raw identifier when no client matches.
func ClientLabel(names map[model.CPF]string, cpf model.CPF) string {
	if name, ok := names[cpf.Normalize()]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("Cliente (CPF: %s)", cpf)
}

// NameIndex maps normalized CPFs to client names.
func NameIndex(clients []model.Client) map[model.CPF]string {
	names := make(map[model.CPF]string, len(clients))
	for _, c := range clients {
		names[c.CPF.Normalize()] = c.Name
	}
	return names
}

// ValueByClient sums insured values per client in order of first policy.
func ValueByClient(clients []model.Client, policies []model.Policy) []ClientValue {
	names := NameIndex(clients)
	index := make(map[model.CPF]int)
	var out []ClientValue
	for _, p := range policies {
		key := p.ClientCPF.Normalize()
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, ClientValue{CPF: p.ClientCPF, Name: ClientLabel(names, p.ClientCPF)})
		}
		out[i].Total = out[i].Total.Add(p.InsuredValue)
	}
	return out
}

// CountByType counts policies per coverage type. Every supported type is
// listed, in display order, even when its count is zero.
func CountByType(policies []model.Policy) []TypeCount {
	types := model.CoverageTypes()
	counts := make(map[model.CoverageType]int, len(types))
	for _, p := range policies {
		counts[p.Type]++
	}
	out := make([]TypeCount, 0, len(types))
	for _, t := range types {
		out = append(out, TypeCount{Type: t, Count: counts[t]})
	}
	return out
}

// ClaimsByStatus counts claims per known status.
func ClaimsByStatus(claims []model.Claim) ClaimSummary {
	statuses := model.ClaimStatuses()
	counts := make(map[model.ClaimStatus]int, len(statuses))
	for _, c := range claims {
		counts[c.Status]++
	}

	summary := ClaimSummary{Total: len(claims)}
	for _, s := range statuses {
		share := StatusShare{Status: s, Count: counts[s]}
		if summary.Total > 0 {
			share.Percent = float64(share.Count) / float64(summary.Total) * 100
		}
		summary.Statuses = append(summary.Statuses, share)
	}
	return summary
}

// ClientRanking orders clients by number of policies, highest first. Ties
// keep the order in which the clients were first seen. Policies without a
// client CPF are ignored.
func ClientRanking(clients []model.Client, policies []model.Policy) []RankEntry {
	names := NameIndex(clients)
	index := make(map[model.CPF]int)
	var out []RankEntry
	for _, p := range policies {
		key := p.ClientCPF.Normalize()
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, RankEntry{CPF: p.ClientCPF, Name: ClientLabel(names, p.ClientCPF)})
		}
		out[i].Policies++
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Policies > out[b].Policies
	})
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}
