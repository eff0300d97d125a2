package breachdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/identscan/internal/model"
)

// ErrInvalidCorpus is returned for import documents that reference unknown
// breaches or lack required fields.
var ErrInvalidCorpus = errors.New("invalid breach corpus")

// Corpus is the import document.
type Corpus struct {
	Breaches []BreachRecord  `json:"breaches"`
	Accounts []AccountRecord `json:"accounts"`
}

// BreachRecord uses the Have I Been Pwned breach model field names.
type BreachRecord struct {
	Name        string   `json:"Name"`
	Title       string   `json:"Title"`
	Domain      string   `json:"Domain"`
	BreachDate  string   `json:"BreachDate"`
	DataClasses []string `json:"DataClasses"`
	PwnCount    int64    `json:"PwnCount"`
}

// AccountRecord lists the breaches an address appeared in.
type AccountRecord struct {
	Email    string   `json:"email"`
	Breaches []string `json:"breaches"`
}

// toModel converts r to the report model.
func (r BreachRecord) toModel() model.Breach {
	return model.Breach{
		Name:        r.Name,
		Title:       r.Title,
		Domain:      r.Domain,
		BreachDate:  r.BreachDate,
		DataClasses: r.DataClasses,
		PwnCount:    r.PwnCount,
	}
}

// ReadCorpus decodes and validates an import document.
func ReadCorpus(r io.Reader) (*Corpus, error) {
	var c Corpus
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCorpus, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that every breach has a name and every account references
// a breach defined in the document.
func (c *Corpus) Validate() error {
	names := make(map[string]bool, len(c.Breaches))
	for i, b := range c.Breaches {
		if strings.TrimSpace(b.Name) == "" {
			return fmt.Errorf("%w: breach %d has no name", ErrInvalidCorpus, i)
		}
		names[b.Name] = true
	}
	for _, a := range c.Accounts {
		if !strings.Contains(a.Email, "@") {
			return fmt.Errorf("%w: invalid account %q", ErrInvalidCorpus, a.Email)
		}
		for _, name := range a.Breaches {
			if !names[name] {
				return fmt.Errorf("%w: account %q references unknown breach %q", ErrInvalidCorpus, a.Email, name)
			}
		}
	}
	return nil
}

// normalizeEmail lower-cases an address for storage and lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
