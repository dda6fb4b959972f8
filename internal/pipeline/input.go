package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/etymologia/internal/model"
)

// ErrNoEpithets is returned when the input document lacks the epithets collection
var ErrNoEpithets = errors.New("input document has no \"epithets\" collection")

// ReadEpithets reads the epithet list from a JSON document, or from YAML
// when the file extension is .yaml or .yml
func ReadEpithets(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read epithets: %w", err)
	}

	var doc model.EpithetDocument
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse epithets %s: %w", path, err)
	}

	if doc.Epithets == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNoEpithets)
	}
	return doc.Epithets, nil
}
