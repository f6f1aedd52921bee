package model

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Allocation is one ticker's target fraction of the portfolio value.
type Allocation struct {
	Ticker string
	Weight float64
}

// AllocationTarget maps tickers to target fractions and keeps insertion order.
// The zero value is an empty target ready to use.
type AllocationTarget struct {
	order   []string
	weights map[string]float64
}

// NewAllocationTarget builds a target from the given pairs, in order.
func NewAllocationTarget(pairs ...Allocation) AllocationTarget {
	var a AllocationTarget
	for _, p := range pairs {
		a.Set(p.Ticker, p.Weight)
	}
	return a
}

// Set assigns a fraction. An existing ticker keeps its position.
func (a *AllocationTarget) Set(ticker string, weight float64) {
	if a.weights == nil {
		a.weights = make(map[string]float64)
	}
	if _, ok := a.weights[ticker]; !ok {
		a.order = append(a.order, ticker)
	}
	a.weights[ticker] = weight
}

// Get returns the fraction for ticker.
func (a AllocationTarget) Get(ticker string) (float64, bool) {
	w, ok := a.weights[ticker]
	return w, ok
}

// Tickers returns the tickers in insertion order.
func (a AllocationTarget) Tickers() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Entries returns the pairs in insertion order.
func (a AllocationTarget) Entries() []Allocation {
	out := make([]Allocation, 0, len(a.order))
	for _, t := range a.order {
		out = append(out, Allocation{Ticker: t, Weight: a.weights[t]})
	}
	return out
}

func (a AllocationTarget) Len() int { return len(a.order) }

// Sum adds up all fractions.
func (a AllocationTarget) Sum() float64 {
	sum := 0.0
	for _, t := range a.order {
		sum += a.weights[t]
	}
	return sum
}

// UnmarshalYAML decodes a mapping of ticker to fraction, keeping document order.
func (a *AllocationTarget) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("allocations: line %d: expected a mapping of ticker to fraction", node.Line)
	}
	var out AllocationTarget
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if _, dup := out.weights[key.Value]; dup {
			return fmt.Errorf("allocations: line %d: duplicate ticker %q", key.Line, key.Value)
		}
		w, err := strconv.ParseFloat(val.Value, 64)
		if err != nil {
			return fmt.Errorf("allocations: line %d: fraction for %q: %w", val.Line, key.Value, err)
		}
		out.Set(key.Value, w)
	}
	*a = out
	return nil
}

// MarshalYAML encodes the target as an ordered mapping.
func (a AllocationTarget) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range a.Entries() {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Ticker},
			&yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(e.Weight, 'f', -1, 64)},
		)
	}
	return node, nil
}
