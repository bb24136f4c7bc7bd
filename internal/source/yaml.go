package source

import (
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/partyload/internal/party"
)

// DecodeYAML reads a YAML sequence of documents. An empty stream yields no
// documents.
func DecodeYAML(r io.Reader) ([]party.Document, error) {
	var docs []party.Document
	if err := yaml.NewDecoder(r).Decode(&docs); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, eris.Wrap(err, "source: decode yaml")
	}
	for i, d := range docs {
		if d == nil {
			return nil, eris.Errorf("source: yaml document %d is not a mapping", i)
		}
	}
	return docs, nil
}
