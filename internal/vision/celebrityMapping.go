package vision

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// LoadCelebrityNames reads the {"<index>": "<name>"} table written next to the model
func LoadCelebrityNames(path string) (map[int]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read celebrity mapping: %w", err)
	}
	var byKey map[string]string
	if err := json.Unmarshal(raw, &byKey); err != nil {
		return nil, fmt.Errorf("parse celebrity mapping: %w", err)
	}
	names := make(map[int]string, len(byKey))
	for k, v := range byKey {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("celebrity mapping key %q is not an index", k)
		}
		names[idx] = v
	}
	return names, nil
}
