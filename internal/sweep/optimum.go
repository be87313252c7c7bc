package sweep

import (
	"github.com/bonesbb/HASPR/internal/generation"
	"github.com/bonesbb/HASPR/internal/poa"
)

// Record is one site's overview at one orientation.
type Record struct {
	Orientation poa.Orientation
	Overview    generation.Overview
}

// Optimum is the best orientation found for a site, by annual and by
// winter generation.
type Optimum struct {
	SiteID   string
	Total    poa.Orientation
	TotalWh  float64
	Winter   poa.Orientation
	WinterWh float64
}

// SelectOptimum returns, per site in first-seen order, the orientation with
// the highest total and the one with the highest winter generation. Only
// strictly greater values replace the incumbent, so ties keep the
// orientation seen first; a site that never beats 0 keeps the zero
// orientation.
func SelectOptimum(records []Record) []Optimum {
	index := make(map[string]int)
	var out []Optimum

	for _, r := range records {
		id := r.Overview.SiteID
		i, seen := index[id]
		if !seen {
			i = len(out)
			index[id] = i
			out = append(out, Optimum{SiteID: id})
		}
		opt := &out[i]
		if r.Overview.Total > opt.TotalWh {
			opt.TotalWh = r.Overview.Total
			opt.Total = r.Orientation
		}
		if r.Overview.Winter > opt.WinterWh {
			opt.WinterWh = r.Overview.Winter
			opt.Winter = r.Orientation
		}
	}
	return out
}
