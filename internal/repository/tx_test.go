package repository

import (
	"reflect"
	"testing"
)

func TestWhereBuilderNumbersPlaceholders(t *testing.T) {
	var where whereBuilder
	if got := where.sql(); got != "" {
		t.Fatalf("empty builder sql = %q", got)
	}
	where.add("role=$%d", "ADMIN")
	where.raw("is_read=FALSE")
	where.add("(a LIKE $%d OR b LIKE $%[1]d)", "%x%")
	where.add("(id = ANY($%d) OR owner=$%d)", []string{"1"}, "o")

	want := " WHERE role=$1 AND is_read=FALSE AND (a LIKE $2 OR b LIKE $2) AND (id = ANY($3) OR owner=$4)"
	if got := where.sql(); got != want {
		t.Fatalf("sql = %q, want %q", got, want)
	}
	if len(where.args) != 4 {
		t.Fatalf("args = %v", where.args)
	}
	if !reflect.DeepEqual(where.args[2], []string{"1"}) {
		t.Fatalf("args[2] = %v", where.args[2])
	}
}

func TestPageClauseDefaults(t *testing.T) {
	tests := []struct {
		limit, offset int
		want          string
	}{
		{0, 0, " LIMIT 20 OFFSET 0"},
		{5, 10, " LIMIT 5 OFFSET 10"},
		{-1, -3, " LIMIT 20 OFFSET 0"},
	}
	for _, tt := range tests {
		if got := pageClause(tt.limit, tt.offset); got != tt.want {
			t.Errorf("pageClause(%d, %d) = %q, want %q", tt.limit, tt.offset, got, tt.want)
		}
	}
}
