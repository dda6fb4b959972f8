package lexicon

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// suggestResponse is returned by the qs-ajax-results (autocomplete) mode
type suggestResponse struct {
	Record []suggestRecord `json:"record"`
}

type suggestRecord struct {
	Value string `json:"value"`
}

// resultsResponse is returned by the qs-results (article search) mode
type resultsResponse struct {
	Record []articleRecord `json:"record"`
}

// articleRecord is one article candidate.
// hakusana is the headword, selite the explanation.
type articleRecord struct {
	Headword string `json:"hakusana"`
	Meaning  string `json:"selite"`
	EtymID   etymID `json:"etym_id"`
}

// etymID accepts both numeric and string article identifiers
type etymID string

func (id *etymID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = etymID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("etym_id: %w", err)
	}
	*id = etymID(n.String())
	return nil
}
