package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSchemaOrder(t *testing.T) {
	s := DefaultSchema()
	require.Equal(t, 12, s.Len())

	names := s.Names()
	assert.Equal(t, AttrInternalSKU, names[0])
	assert.Equal(t, AttrProductOwner, names[len(names)-1])

	a, ok := s.Lookup("vendor_name")
	require.True(t, ok)
	assert.Equal(t, "Vendor Name", a.Label)
	assert.Equal(t, KindText, a.Kind)

	_, ok = s.Lookup("Vendor Name")
	assert.False(t, ok, "Lookup must not accept labels")

	a, ok = s.LookupLabel("vendor name")
	require.True(t, ok)
	assert.Equal(t, AttrVendorName, a.Name)
}

func TestNewSchemaRejectsDuplicates(t *testing.T) {
	_, err := NewSchema(
		Attribute{Name: "a", Label: "A"},
		Attribute{Name: "a", Label: "Again"},
	)
	require.Error(t, err)

	_, err = NewSchema(Attribute{Label: "no name"})
	require.Error(t, err)
}

func TestEmptySchema(t *testing.T) {
	s, err := NewSchema()
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Names())
}

func TestSanitize(t *testing.T) {
	s := DefaultSchema()

	tests := []struct {
		name AttrName
		in   string
		want string
	}{
		{AttrVendorName, "  ACME <b>Corp</b>  ", "ACME Corp"},
		{AttrVendorName, "tab\there\nnewline", "tab here newline"},
		{AttrConfiguration, "line one\r\n  line <i>two</i>  \n", "line one\nline two"},
		{AttrProductURL, "https://example.com/p?id=1", "https://example.com/p?id=1"},
		{AttrProductURL, "javascript:alert(1)", ""},
		{AttrProductURL, "example.com", ""},
		{AttrProductURL, "  http://example.com  ", "http://example.com"},
		{AttrLaunchDate, " 20240115 ", "20240115"},
		{AttrProductOwner, "42", "42"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%q", tt.name, tt.in), func(t *testing.T) {
			got, err := s.Sanitize(tt.name, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := s.Sanitize("colour", "red")
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}

func TestParseCategoryRef(t *testing.T) {
	tests := []struct {
		in   string
		want CategoryRef
	}{
		{"", CategoryRef{}},
		{"0", CategoryRef{}},
		{" 5 ", CategoryRef{ID: 5}},
		{"Servers", CategoryRef{Slug: "servers"}},
		{"5a", CategoryRef{Slug: "5a"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseCategoryRef(tt.in), "input %q", tt.in)
	}

	cat := Category{ID: 5, Slug: "servers", Name: "Servers"}
	assert.True(t, ParseCategoryRef("5").Matches(cat))
	assert.True(t, ParseCategoryRef("SERVERS").Matches(cat))
	assert.False(t, ParseCategoryRef("6").Matches(cat))
	assert.False(t, CategoryRef{}.Matches(cat))
}

func TestValueJSON(t *testing.T) {
	row := map[string]Value{
		"missing": Absent,
		"empty":   Present(""),
		"set":     Present("X-100"),
	}
	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"missing":null,"empty":"","set":"X-100"}`, string(data))

	var back map[string]Value
	require.NoError(t, json.Unmarshal(data, &back))
	assert.False(t, back["missing"].Present)
	assert.True(t, back["empty"].Present)
	assert.Equal(t, "X-100", back["set"].Text)
	assert.Equal(t, "—", back["missing"].Or("—"))
}

func TestStoreErrorMatching(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := Unavailable("query ids", cause)

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsRetryable(err))
	assert.True(t, IsRetryable(fmt.Errorf("fetching page: %w", err)))

	assert.Same(t, err, Unavailable("outer", err))
	assert.Nil(t, Unavailable("noop", nil))
	assert.False(t, IsRetryable(ErrNotFound))
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("publish")
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, st)

	st, err = ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, st)

	_, err = ParseStatus("archived")
	assert.Error(t, err)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "widget-x-100", Slugify("Widget X-100"))
	assert.Equal(t, "a-b", Slugify("  a -- b !! "))
	assert.Equal(t, "", Slugify("***"))
}
