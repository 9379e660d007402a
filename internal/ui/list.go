package ui

import (
	"github.com/charmbracelet/bubbles/list"
)

var (
	_ list.Item = failureItem{}
)

// failureItem wraps [Failure] to implement [list.Item].
type failureItem struct {
	failure Failure
}

func (i failureItem) FilterValue() string { return i.failure.Identifier }
func (i failureItem) Title() string       { return i.failure.Identifier }
func (i failureItem) Description() string { return i.failure.Error }

func failureItems(failures []Failure) []list.Item {
	items := make([]list.Item, len(failures))
	for i, f := range failures {
		items[i] = failureItem{failure: f}
	}
	return items
}
