// Package countries ships the dial code catalog used when building
// direct chat links. The list is embedded so lookups work offline.
package countries

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"
)

//go:embed countries.yaml
var rawCatalog []byte

type Country struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
	Dial string `yaml:"dial"`
}

// DialCode returns the calling code with the leading plus.
func (c Country) DialCode() string {
	return "+" + c.Dial
}

// Label is what pickers show, eg "India (+91)".
func (c Country) Label() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.DialCode())
}

var (
	once    sync.Once
	catalog []Country
	byCode  map[string]Country
	loadErr error
)

func load() error {
	once.Do(func() {
		var list []Country
		if err := yaml.Unmarshal(rawCatalog, &list); err != nil {
			loadErr = errors.Wrap(err, "parse countries catalog")
			return
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
		byCode = make(map[string]Country, len(list))
		for _, c := range list {
			byCode[strings.ToUpper(c.Code)] = c
		}
		catalog = list
	})
	return loadErr
}

// All returns the catalog sorted by country name.
func All() ([]Country, error) {
	if err := load(); err != nil {
		return nil, err
	}
	out := make([]Country, len(catalog))
	copy(out, catalog)
	return out, nil
}

// ByCode looks up a country by ISO code, case insensitive.
func ByCode(code string) (Country, error) {
	if err := load(); err != nil {
		return Country{}, err
	}
	c, ok := byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Country{}, errors.Errorf("unknown country code %q", code)
	}
	return c, nil
}
