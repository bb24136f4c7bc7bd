package layout

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/partyload/internal/party"
)

// ErrSchemaDefinition reports a schema that lacks the definition a dataset needs.
var ErrSchemaDefinition = eris.New("layout: schema definition not found")

// maxRefDepth bounds $ref chains so cyclic schemas fail instead of looping.
const maxRefDepth = 16

// datasetPaths locates each dataset's definition inside a party schema.
var datasetPaths = map[party.Dataset][]string{
	party.Individuals:        {"properties", "IndividualDetails"},
	party.Organisations:      {"properties", "OrganisationDetails"},
	party.Emails:             {"definitions", "email"},
	party.Phones:             {"definitions", "phone"},
	party.FormattedAddresses: {"definitions", "address", "properties", "FormattedAddress"},
}

// addressLineProperties is the fixed property list of the address-lines dataset.
var addressLineProperties = []string{"AddressLines"}

// Schema is a parsed party schema. Only the declared order of property names is
// read; type metadata is ignored. JSON and YAML sources are both accepted.
type Schema struct {
	root *yaml.Node
}

// LoadSchema reads and parses the schema file at path.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "layout: read schema %s", path)
	}
	return ParseSchema(data)
}

// ParseSchema parses a JSON or YAML schema document, keeping key order.
func ParseSchema(data []byte) (*Schema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "layout: parse schema")
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, eris.New("layout: schema root must be an object")
	}
	return &Schema{root: doc.Content[0]}, nil
}

// DatasetProperties returns the declared property names for ds in declared order.
func (s *Schema) DatasetProperties(ds party.Dataset) ([]string, error) {
	if ds == party.AddressLines {
		return addressLineProperties, nil
	}
	path, ok := datasetPaths[ds]
	if !ok {
		return nil, eris.Wrapf(ErrSchemaDefinition, "layout: dataset %s has no schema path", ds)
	}
	props, err := s.Properties(path...)
	if err != nil {
		return nil, eris.Wrapf(err, "layout: dataset %s", ds)
	}
	return props, nil
}

// Properties walks path from the schema root, following $ref and array items,
// and returns the property names of the definition found there.
func (s *Schema) Properties(path ...string) ([]string, error) {
	where := strings.Join(path, ".")

	node, err := s.deref(s.root)
	if err != nil {
		return nil, err
	}
	for _, seg := range path {
		next := child(node, seg)
		if next == nil {
			return nil, eris.Wrapf(ErrSchemaDefinition, "layout: %s: missing %q", where, seg)
		}
		if node, err = s.deref(next); err != nil {
			return nil, eris.Wrapf(err, "layout: %s", where)
		}
	}

	props := child(node, "properties")
	if props == nil || props.Kind != yaml.MappingNode {
		return nil, eris.Wrapf(ErrSchemaDefinition, "layout: %s declares no properties", where)
	}
	keys := make([]string, 0, len(props.Content)/2)
	for i := 0; i+1 < len(props.Content); i += 2 {
		keys = append(keys, props.Content[i].Value)
	}
	return keys, nil
}

// deref follows local "$ref" pointers and descends into "items" of array
// definitions until it reaches a definition that declares properties.
func (s *Schema) deref(n *yaml.Node) (*yaml.Node, error) {
	for range maxRefDepth {
		if n.Kind != yaml.MappingNode {
			return n, nil
		}
		if ref := child(n, "$ref"); ref != nil {
			target, err := s.pointer(ref.Value)
			if err != nil {
				return nil, err
			}
			n = target
			continue
		}
		if child(n, "properties") == nil {
			if items := child(n, "items"); items != nil {
				n = items
				continue
			}
		}
		return n, nil
	}
	return nil, eris.Wrap(ErrSchemaDefinition, "layout: $ref chain too deep")
}

// pointer resolves a local JSON pointer such as "#/definitions/email".
func (s *Schema) pointer(ref string) (*yaml.Node, error) {
	if !strings.HasPrefix(ref, "#") {
		return nil, eris.Wrapf(ErrSchemaDefinition, "layout: external $ref %q not supported", ref)
	}
	n := s.root
	for _, seg := range strings.Split(strings.TrimPrefix(strings.TrimPrefix(ref, "#"), "/"), "/") {
		if seg == "" {
			continue
		}
		seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
		if n = child(n, seg); n == nil {
			return nil, eris.Wrapf(ErrSchemaDefinition, "layout: unresolved $ref %q", ref)
		}
	}
	return n, nil
}

// child returns the value under key in mapping n, matching exactly first and
// then by normalized key.
func child(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	want := party.NormalizeKey(key)
	for i := 0; i+1 < len(n.Content); i += 2 {
		if party.NormalizeKey(n.Content[i].Value) == want {
			return n.Content[i+1]
		}
	}
	return nil
}
