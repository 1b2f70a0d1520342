package source

import (
	"context"
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Seed(context.Background()))
	return s
}

func mustParse(t *testing.T, raw string) Query {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	q, err := ParseQuery(values)
	require.NoError(t, err)
	return q
}

func TestParseQuery(t *testing.T) {
	q := mustParse(t, "filter=role,eq,admin%3Bactive,ne,0&groupby=role,count&orderby=count,desc&limit=3&as_chartjs=true")

	assert.Equal(t, []Filter{{"role", "eq", "admin"}, {"active", "ne", "0"}}, q.Filters)
	assert.Equal(t, []Group{{"role", "count"}}, q.GroupBy)
	assert.Equal(t, &Order{Field: "count", Desc: true}, q.OrderBy)
	assert.Equal(t, 3, q.Limit)
	assert.Equal(t, FormatChartJS, q.Format)
}

func TestParseQueryDefaults(t *testing.T) {
	q := mustParse(t, "")
	assert.Equal(t, DefaultLimit, q.Limit)
	assert.Equal(t, FormatObject, q.Format)
	assert.Nil(t, q.OrderBy)
}

func TestParseQueryRejects(t *testing.T) {
	for _, raw := range []string{
		"filter=role,eq",
		"filter=role,between,1",
		"groupby=role",
		"limit=-1",
		"limit=many",
	} {
		values, _ := url.ParseQuery(raw)
		_, err := ParseQuery(values)
		assert.ErrorIs(t, err, ErrBadQuery, raw)
	}
}

func TestTablesAndSchema(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"events", "users"}, tables)

	cols, err := s.Schema(ctx, "users")
	require.NoError(t, err)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"id", "email", "username", "role", "active", "created_at"}, names)
	assert.True(t, cols[0].Primary)

	_, err = s.Schema(ctx, "schema_migrations")
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestRunObject(t *testing.T) {
	s := newStore(t)

	out, err := s.Run(context.Background(), "users", mustParse(t, "filter=role,eq,editor&inc_fields=id,username&orderby=id"))
	require.NoError(t, err)

	env := out.(map[string]any)
	assert.Equal(t, 2, env["total"])
	records := env["data"].([]map[string]any)
	require.Len(t, records, 2)
	assert.Equal(t, "grace", records[0]["username"])
	assert.NotContains(t, records[0], "email")
}

func TestRunFirstAndCount(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	out, err := s.Run(ctx, "users", mustParse(t, "getfirst=true&orderby=id,desc"))
	require.NoError(t, err)
	assert.Equal(t, "barbara", out.(map[string]any)["data"].(map[string]any)["username"])

	out, err = s.Run(ctx, "events", mustParse(t, "getcount=true&filter=kind,eq,login"))
	require.NoError(t, err)
	assert.Equal(t, 4, out.(map[string]any)["count"])
}

func TestRunDataTables(t *testing.T) {
	s := newStore(t)

	out, err := s.Run(context.Background(), "users", mustParse(t, "as_datatables=true&inc_fields=id,username&limit=2&orderby=id"))
	require.NoError(t, err)

	env := out.(TableEnvelope)
	assert.Equal(t, 0, env.Draw)
	assert.Equal(t, []string{"id", "username"}, env.Columns)
	assert.Equal(t, 2, env.Count)
	assert.Equal(t, 5, env.Total)
	assert.Equal(t, [][]any{{int64(1), "ada"}, {int64(2), "grace"}}, env.Data)
}

func TestRunChartGroupBy(t *testing.T) {
	s := newStore(t)

	out, err := s.Run(context.Background(), "events", mustParse(t, "as_chartjs=true&groupby=kind,count&orderby=count,desc"))
	require.NoError(t, err)

	env := out.(ChartEnvelope)
	assert.Equal(t, 4, env.Total)
	assert.Equal(t, "login", env.Label[0])
	assert.Equal(t, int64(4), env.Data[0])
	require.Len(t, env.Color, env.Count)
	for _, c := range env.Color {
		assert.Regexp(t, regexp.MustCompile(`^rgb\(\d{1,3},\d{1,3},\d{1,3}\)$`), c)
	}
}

func TestRunSchema(t *testing.T) {
	s := newStore(t)

	out, err := s.Run(context.Background(), "users", mustParse(t, "as_schema=true&exc_fields=created_at"))
	require.NoError(t, err)
	env := out.(map[string]any)
	assert.Equal(t, 5, env["count"])
}

func TestRunRejectsUnknownIdentifiers(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Run(ctx, "accounts", Query{Limit: DefaultLimit})
	assert.ErrorIs(t, err, ErrUnknownTable)

	for _, raw := range []string{
		"filter=password_hash,eq,x",
		"inc_fields=id%3BDROP+TABLE+users",
		"orderby=nope",
		"groupby=nope,count",
	} {
		_, err := s.Run(ctx, "users", mustParse(t, raw))
		assert.ErrorIs(t, err, ErrUnknownField, raw)
	}
}

func TestInsertAndDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, "users", map[string]any{"email": "new@example.com", "username": "new"})
	require.NoError(t, err)
	assert.Equal(t, int64(6), id)

	_, err = s.Insert(ctx, "users", map[string]any{"password_hash": "x"})
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = s.Insert(ctx, "users", nil)
	assert.ErrorIs(t, err, ErrEmptyRecord)

	ok, err := s.Delete(ctx, "users", id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Delete(ctx, "users", id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSeedIsIdempotent(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Seed(context.Background()))

	out, err := s.Run(context.Background(), "users", mustParse(t, "getcount=true"))
	require.NoError(t, err)
	assert.Equal(t, 5, out.(map[string]any)["count"])
}

func TestToChartSplitsCountColumn(t *testing.T) {
	rows := Rows{
		Columns: []string{"count", "role", "active"},
		Records: []map[string]any{{"count": 2, "role": "editor", "active": 1}},
	}
	env := ToChart(rows, 7)
	assert.Equal(t, []string{"editor 1"}, env.Label)
	assert.Equal(t, []any{2}, env.Data)
	assert.Equal(t, 1, env.Count)
	assert.Equal(t, 7, env.Total)
}

func TestHLSToRGB(t *testing.T) {
	r, g, b := hlsToRGB(0, 0.5, 1)
	assert.Equal(t, []int{255, 0, 0}, []int{r, g, b})

	r, g, b = hlsToRGB(0, 0.5, 0)
	assert.Equal(t, []int{128, 128, 128}, []int{r, g, b})
}
