package layer

import (
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/ryandielhenn/zephyrcast/pkg/peer"
)

// DefaultParallelThreshold is the candidate count from which proximity
// ranking is spread over GOMAXPROCS goroutines.
const DefaultParallelThreshold = 4096

type ranked struct {
	node      *peer.Node
	proximity peer.Proximity
}

func compareRanked(a, b ranked) int {
	return a.proximity.Compare(b.proximity)
}

// rankByProximity returns candidates ordered by ascending proximity to the
// reference profile. Equal proximities keep no particular order.
func rankByProximity(to *peer.Profile, candidates []*peer.Node, threshold int) []ranked {
	out := make([]ranked, len(candidates))

	workers := runtime.GOMAXPROCS(0)
	if len(candidates) < threshold || workers < 2 {
		for i, n := range candidates {
			out[i] = ranked{node: n, proximity: to.Proximity(n.Profile())}
		}
		slices.SortFunc(out, compareRanked)
		return out
	}

	width := (len(out) + workers - 1) / workers
	var g errgroup.Group
	for lo := 0; lo < len(out); lo += width {
		hi := min(lo+width, len(out))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				out[i] = ranked{node: candidates[i], proximity: to.Proximity(candidates[i].Profile())}
			}
			slices.SortFunc(out[lo:hi], compareRanked)
			return nil
		})
	}
	_ = g.Wait()

	return mergeRuns(out, width)
}

// mergeRuns merges consecutive sorted runs of the given width, pairwise and
// in parallel, until a single run is left.
func mergeRuns(src []ranked, width int) []ranked {
	dst := make([]ranked, len(src))
	for ; width < len(src); width *= 2 {
		var g errgroup.Group
		for lo := 0; lo < len(src); lo += 2 * width {
			mid := min(lo+width, len(src))
			hi := min(lo+2*width, len(src))
			g.Go(func() error {
				merge(dst[lo:hi], src[lo:mid], src[mid:hi])
				return nil
			})
		}
		_ = g.Wait()
		src, dst = dst, src
	}
	return src
}

func merge(dst, a, b []ranked) {
	i, j, k := 0, 0, 0
	for i < len(a) && j < len(b) {
		if compareRanked(b[j], a[i]) < 0 {
			dst[k] = b[j]
			j++
		} else {
			dst[k] = a[i]
			i++
		}
		k++
	}
	k += copy(dst[k:], a[i:])
	copy(dst[k:], b[j:])
}
