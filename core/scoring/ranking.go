package scoring

import (
	"sort"
	"time"

	"github.com/kilianp07/shuttle/core/model"
)

// DefaultTopK is the number of express candidates kept by TopK.
const DefaultTopK = 5

// Priority is the combined score of a stop.
type Priority struct {
	Stop         string  `json:"stop"`
	Satisfaction float64 `json:"satisfaction"`
	Density      float64 `json:"density"`
	Score        float64 `json:"score"`
}

// Rank orders every stop by descending score. The score adds the stop's
// waiting cost on core routes to its density score. Ties keep registry order.
func (s *Scorer) Rank(day time.Weekday, w model.Window) ([]Priority, error) {
	sat, err := s.Satisfaction(day, w)
	if err != nil {
		return nil, err
	}
	stops := s.net.Stops()
	out := make([]Priority, 0, len(stops))
	for _, st := range stops {
		p := Priority{Stop: st.Name}
		for route, v := range sat[st.Name] {
			if s.core[route] {
				p.Satisfaction += v
			}
		}
		d, err := s.Density(st.Name, day, w)
		if err != nil {
			return nil, err
		}
		p.Density = d
		p.Score = p.Satisfaction + p.Density
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	s.log.Debugw("stops ranked", map[string]any{"day": day.String(), "stops": len(out)})
	return out, nil
}

// TopK returns the names of the first k ranked stops.
func TopK(ranking []Priority, k int) []string {
	if k <= 0 {
		k = DefaultTopK
	}
	if k > len(ranking) {
		k = len(ranking)
	}
	out := make([]string, k)
	for i := range out {
		out[i] = ranking[i].Stop
	}
	return out
}
