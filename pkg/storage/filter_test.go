package storage

import (
	"strings"
	"testing"

	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/db"
	"github.com/rubiojr/catalog/pkg/query"
)

func TestFilterPostgresPlaceholders(t *testing.T) {
	f := &filterSQL{dialect: db.Postgres}
	expr := query.AndOf(
		query.HasStatus{Status: catalog.StatusPublished},
		query.OrOf(
			query.TitleContains{Needle: "50%"},
			query.AttrContains{Attrs: []catalog.AttrName{"vendor_name", "type"}, Needle: "50%"},
		),
		query.InCategory{Ref: catalog.CategoryRef{Slug: "racks"}},
	)

	where, err := f.where(expr)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 6; i++ {
		if !strings.Contains(where, "$"+string(rune('0'+i))) {
			t.Fatalf("missing placeholder $%d in %s", i, where)
		}
	}
	if strings.Contains(where, "?") {
		t.Fatalf("sqlite placeholder leaked into postgres SQL: %s", where)
	}

	want := []any{"published", `%50\%%`, "vendor_name", "type", `%50\%%`, "racks"}
	if len(f.args) != len(want) {
		t.Fatalf("args = %v, want %v", f.args, want)
	}
	for i := range want {
		if f.args[i] != want[i] {
			t.Fatalf("arg %d = %v, want %v", i, f.args[i], want[i])
		}
	}

	order := f.orderBy(query.SortVendor)
	if !strings.Contains(order, "$7") || !strings.HasSuffix(order, "p.id ASC") {
		t.Fatalf("unexpected order clause %s", order)
	}
}

func TestFilterEmptyCases(t *testing.T) {
	f := &filterSQL{dialect: db.SQLite}
	tests := []struct {
		expr query.Expr
		want string
	}{
		{query.All{}, "1=1"},
		{query.None{}, "1=0"},
		{query.And{}, "1=1"},
		{query.Or{}, "1=0"},
		{query.AttrContains{Needle: "x"}, "1=0"},
	}
	for _, tt := range tests {
		got, err := f.where(tt.expr)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("where(%s) = %s, want %s", tt.expr, got, tt.want)
		}
	}
	if len(f.args) != 0 {
		t.Fatalf("empty cases should not bind args: %v", f.args)
	}
}
