package catalog

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// AttrName is the stable key of a product attribute.
type AttrName string

const (
	AttrInternalSKU         AttrName = "internal_sku"
	AttrVendorName          AttrName = "vendor_name"
	AttrVendorSKU           AttrName = "vendor_sku"
	AttrType                AttrName = "type"
	AttrConfiguration       AttrName = "configuration"
	AttrDetail              AttrName = "detail"
	AttrKeywords            AttrName = "keywords"
	AttrAlternateVendorName AttrName = "alternate_vendor_name"
	AttrAlternateVendorSKU  AttrName = "alternate_vendor_sku"
	AttrLaunchDate          AttrName = "launch_date"
	AttrProductURL          AttrName = "product_url"
	AttrProductOwner        AttrName = "product_owner"
)

// Kind is the value kind of an attribute.
type Kind int

const (
	KindText Kind = iota
	KindLongText
	KindURL
	KindDate
	KindUser
)

var kindNames = map[Kind]string{
	KindText:     "text",
	KindLongText: "long_text",
	KindURL:      "url",
	KindDate:     "date",
	KindUser:     "user",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown attribute kind %q", string(text))
}

// Attribute describes one entry of the schema.
type Attribute struct {
	Name  AttrName `json:"name"`
	Label string   `json:"label"`
	Kind  Kind     `json:"kind"`
}

// Schema is a fixed, ordered set of attributes. It is immutable once built
// and safe for concurrent use.
type Schema struct {
	attrs []Attribute
	index map[AttrName]int
}

// NewSchema builds a schema from attrs, keeping their order. Names must be
// non-empty and unique.
func NewSchema(attrs ...Attribute) (*Schema, error) {
	s := &Schema{
		attrs: make([]Attribute, 0, len(attrs)),
		index: make(map[AttrName]int, len(attrs)),
	}
	for _, a := range attrs {
		if a.Name == "" {
			return nil, fmt.Errorf("attribute with empty name")
		}
		if _, dup := s.index[a.Name]; dup {
			return nil, fmt.Errorf("duplicate attribute %q", a.Name)
		}
		if a.Label == "" {
			a.Label = string(a.Name)
		}
		s.index[a.Name] = len(s.attrs)
		s.attrs = append(s.attrs, a)
	}
	return s, nil
}

var defaultAttributes = []Attribute{
	{AttrInternalSKU, "Internal SKU", KindText},
	{AttrVendorName, "Vendor Name", KindText},
	{AttrVendorSKU, "Vendor SKU", KindText},
	{AttrType, "Type", KindText},
	{AttrConfiguration, "Configuration", KindLongText},
	{AttrDetail, "Detail", KindLongText},
	{AttrKeywords, "Keywords", KindText},
	{AttrAlternateVendorName, "Alternate Vendor Name", KindText},
	{AttrAlternateVendorSKU, "Alternate Vendor SKU", KindText},
	{AttrLaunchDate, "Launch Date", KindDate},
	{AttrProductURL, "Product URL", KindURL},
	{AttrProductOwner, "Product Owner", KindUser},
}

// DefaultSchema returns the standard product attribute set.
func DefaultSchema() *Schema {
	s, err := NewSchema(defaultAttributes...)
	if err != nil {
		panic(err)
	}
	return s
}

// Attributes returns a copy of the attributes in schema order.
func (s *Schema) Attributes() []Attribute {
	if s == nil {
		return nil
	}
	out := make([]Attribute, len(s.attrs))
	copy(out, s.attrs)
	return out
}

// Names returns the attribute keys in schema order.
func (s *Schema) Names() []AttrName {
	if s == nil {
		return nil
	}
	out := make([]AttrName, len(s.attrs))
	for i, a := range s.attrs {
		out[i] = a.Name
	}
	return out
}

// Len returns the number of attributes.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.attrs)
}

// Lookup finds an attribute by key. Labels are not accepted here; see
// LookupLabel.
func (s *Schema) Lookup(name string) (Attribute, bool) {
	if s == nil {
		return Attribute{}, false
	}
	i, ok := s.index[AttrName(name)]
	if !ok {
		return Attribute{}, false
	}
	return s.attrs[i], true
}

// LookupLabel finds an attribute by key or, failing that, by its display
// label compared case-insensitively. Spreadsheet headers use either.
func (s *Schema) LookupLabel(header string) (Attribute, bool) {
	h := strings.TrimSpace(header)
	if a, ok := s.Lookup(h); ok {
		return a, true
	}
	if s == nil {
		return Attribute{}, false
	}
	for _, a := range s.attrs {
		if strings.EqualFold(a.Label, h) {
			return a, true
		}
	}
	return Attribute{}, false
}

// Sanitize cleans a value for storage according to the attribute kind.
// Unknown names are rejected with ErrUnknownAttribute.
func (s *Schema) Sanitize(name AttrName, value string) (string, error) {
	a, ok := s.Lookup(string(name))
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAttribute, name)
	}
	switch a.Kind {
	case KindLongText:
		return sanitizeLongText(value), nil
	case KindURL:
		return sanitizeURL(value), nil
	default:
		return sanitizeText(value), nil
	}
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func sanitizeText(v string) string {
	v = tagPattern.ReplaceAllString(v, "")
	v = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, v)
	return strings.Join(strings.Fields(v), " ")
}

func sanitizeLongText(v string) string {
	v = strings.ReplaceAll(v, "\r\n", "\n")
	lines := strings.Split(v, "\n")
	for i, line := range lines {
		lines[i] = sanitizeText(line)
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

// sanitizeURL keeps absolute http(s) URLs and drops anything else.
func sanitizeURL(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.ContainsAny(v, " \t\r\n<>\"") {
		return ""
	}
	u, err := url.Parse(v)
	if err != nil || u.Host == "" {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.String()
	}
	return ""
}

// ValidURL reports whether v is an absolute http(s) URL.
func ValidURL(v string) bool {
	return v != "" && sanitizeURL(v) == strings.TrimSpace(v)
}
