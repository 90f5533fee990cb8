package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/nhle/todo-board/internal/model"
)

// prettyLimit is the list length below which files are indented.
const prettyLimit = 100

// decodeList parses a JSON array. Empty or whitespace-only input is an
// empty list.
func decodeList[T any](data []byte, name string) ([]T, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// encodeList renders items as a JSON array, indented for short lists.
func encodeList[T any](items []T, name string) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	var (
		data []byte
		err  error
	)
	if len(items) < prettyLimit {
		data, err = json.MarshalIndent(items, "", "  ")
	} else {
		data, err = json.Marshal(items)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", name, err)
	}
	return data, nil
}

// sequenced returns a copy of todos whose positions match their index.
func sequenced(todos []model.Task) []model.Task {
	out := make([]model.Task, len(todos))
	for i, t := range todos {
		out[i] = t.Clone()
		out[i].Position = i
	}
	return out
}

// restoreItem moves id from trash to the end of todos.
func restoreItem(todos, trash []model.Task, id int64) ([]model.Task, []model.Task, error) {
	idx := indexOf(trash, id)
	if idx < 0 {
		return nil, nil, NotInTrash(id)
	}
	item := trash[idx].Clone()
	item.TrashedAt = nil
	item.Position = len(todos)

	rest := make([]model.Task, 0, len(trash)-1)
	rest = append(rest, trash[:idx]...)
	rest = append(rest, trash[idx+1:]...)

	return append(todos, item), rest, nil
}

// purgeItem drops id from trash.
func purgeItem(trash []model.Task, id int64) ([]model.Task, error) {
	idx := indexOf(trash, id)
	if idx < 0 {
		return nil, NotInTrash(id)
	}
	rest := make([]model.Task, 0, len(trash)-1)
	rest = append(rest, trash[:idx]...)
	return append(rest, trash[idx+1:]...), nil
}

func indexOf(tasks []model.Task, id int64) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
