package board

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/masonry/pkg/core/layout"
	"github.com/matzehuels/masonry/pkg/errors"
)

// ItemList is the object form of an item file.
type ItemList struct {
	Items []layout.Item `json:"items" bson:"items"`
}

// MarshalItems serializes items to pretty-printed JSON in object form.
func MarshalItems(items []layout.Item) ([]byte, error) {
	return json.MarshalIndent(ItemList{Items: items}, "", "  ")
}

// UnmarshalItems decodes an item file. Both a bare array and the
// {"items": [...]} object form are accepted. The result is validated with
// [errors.ValidateItems].
func UnmarshalItems(data []byte) ([]layout.Item, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidItems, "item file is empty")
	}

	var items []layout.Item
	if data[0] == '[' {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidItems, err, "decode item array")
		}
	} else {
		var list ItemList
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidItems, err, "decode item list")
		}
		items = list.Items
	}

	if err := errors.ValidateItems(items); err != nil {
		return nil, err
	}
	return items, nil
}

// ReadItems decodes an item file from r.
func ReadItems(r io.Reader) ([]layout.Item, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	return UnmarshalItems(data)
}

// ReadItemsFile reads an item file from disk.
func ReadItemsFile(path string) ([]layout.Item, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "item file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalItems(data)
}

// WriteItemsFile writes items to a JSON file in object form.
func WriteItemsFile(items []layout.Item, path string) error {
	data, err := MarshalItems(items)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
