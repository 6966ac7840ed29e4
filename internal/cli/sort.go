package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/census-dict/internal/variable"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByIndex SortOrder = ""
	SortByCode  SortOrder = "code"
	SortByName  SortOrder = "name"
	SortByTopic SortOrder = "topic"
)

func parseSortOrder(s string) (SortOrder, error) {
	order := SortOrder(strings.ToLower(strings.TrimSpace(s)))
	switch order {
	case SortByIndex, SortByCode, SortByName, SortByTopic:
		return order, nil
	}
	return "", fmt.Errorf("invalid sort order: %s (must be 'code', 'name' or 'topic')", s)
}

// sortVariables sorts variables in place; SortByIndex keeps index order
func sortVariables(vars []*variable.Variable, order SortOrder) {
	switch order {
	case SortByCode:
		sort.SliceStable(vars, func(i, j int) bool {
			return vars[i].Code < vars[j].Code
		})
	case SortByName:
		sort.SliceStable(vars, func(i, j int) bool {
			return strings.ToLower(vars[i].Name) < strings.ToLower(vars[j].Name)
		})
	case SortByTopic:
		sort.SliceStable(vars, func(i, j int) bool {
			if vars[i].Topic != vars[j].Topic {
				return strings.ToLower(vars[i].Topic) < strings.ToLower(vars[j].Topic)
			}
			// Same topic: by code
			return vars[i].Code < vars[j].Code
		})
	}
}

// filterTopic keeps variables whose topic matches, case-insensitively
func filterTopic(vars []*variable.Variable, topic string) []*variable.Variable {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return vars
	}

	filtered := make([]*variable.Variable, 0)
	for _, v := range vars {
		if strings.EqualFold(v.Topic, topic) {
			filtered = append(filtered, v)
		}
	}
	return filtered
}
