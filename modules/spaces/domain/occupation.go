package domain

import "fmt"

// ExplicitConfig schedules an occupation as an explicit list of intervals.
type ExplicitConfig struct {
	Intervals []Interval `json:"intervals"`
}

func NewExplicitConfig(intervals []Interval) (ExplicitConfig, error) {
	for i, interval := range intervals {
		if interval.Until == nil {
			return ExplicitConfig{}, fmt.Errorf("interval %d has no end", i)
		}
	}
	out := make([]Interval, len(intervals))
	copy(out, intervals)
	return ExplicitConfig{Intervals: out}, nil
}

type Occupation struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Config      ExplicitConfig `json:"config"`
	SpaceIDs    []string       `json:"space_ids"`
}

func (o *Occupation) AddSpace(id string) {
	for _, existing := range o.SpaceIDs {
		if existing == id {
			return
		}
	}
	o.SpaceIDs = append(o.SpaceIDs, id)
}
