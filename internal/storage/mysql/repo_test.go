package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"co2etl/internal/ddl"
	"co2etl/internal/storage"
)

func TestInsertSQL(t *testing.T) {
	t.Parallel()

	got := insertSQL("co2.out", []string{"entity", "year"}, 2)
	want := "INSERT INTO `co2`.`out` (`entity`, `year`) VALUES (?, ?), (?, ?)"
	if got != want {
		t.Fatalf("insertSQL =\n%s\nwant\n%s", got, want)
	}
}

func TestChunkRows(t *testing.T) {
	t.Parallel()

	rows := make([][]any, 7)
	chunks := chunkRows(rows, 3)
	if len(chunks) != 3 || len(chunks[0]) != 3 || len(chunks[2]) != 1 {
		t.Fatalf("chunks = %d", len(chunks))
	}
	if got := chunkRows(rows, 0); len(got) != 7 {
		t.Fatalf("size 0 chunks = %d; want 7", len(got))
	}
}

func TestDialectCreateTable(t *testing.T) {
	t.Parallel()

	got, err := ddl.BuildCreateTableSQL(ddl.OutputTable("co2", dialect.MapType), dialect)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	for _, w := range []string{
		"CREATE TABLE IF NOT EXISTS `co2`",
		"`entity` VARCHAR(255) NOT NULL",
		"`year` INT NOT NULL",
		"`population` DOUBLE",
	} {
		if !strings.Contains(got, w) {
			t.Fatalf("missing %q in:\n%s", w, got)
		}
	}
}

func TestNewRepositoryRejectsBadDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{DSN: "user@tcp(localhost"}); err == nil {
		t.Fatalf("expected DSN error")
	}
}

func TestRegistrationUsesHook(t *testing.T) {
	orig := newRepository
	t.Cleanup(func() { newRepository = orig })

	var got Config
	newRepository = func(_ context.Context, cfg Config) (*Repository, func(), error) {
		got = cfg
		return &Repository{cfg: cfg}, nil, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{Kind: "mysql", DSN: "u@/db", Table: "co2"})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	repo.Close()
	if got.DSN != "u@/db" || got.Table != "co2" {
		t.Fatalf("config = %+v", got)
	}
	if d, err := storage.DialectFor("mysql"); err != nil || d.KeepsNaN {
		t.Fatalf("dialect = %+v, %v", d, err)
	}
}

type fakeResult int64

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return int64(r), nil }

type fakeExecer struct {
	queries []string
	failAt  int
}

func (f *fakeExecer) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	f.queries = append(f.queries, query)
	if f.failAt > 0 && len(f.queries) == f.failAt {
		return nil, errors.New("duplicate entry")
	}
	return fakeResult(len(args) / 2), nil
}

func TestInsertRowsSharesExecer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cols := []string{"entity", "year"}
	rows := [][]any{{"A", 2019}, {"B", 2019}, {"C", 2020}}

	ex := &fakeExecer{}
	n, err := insertRows(ctx, ex, "co2", cols, rows)
	if err != nil || n != 3 {
		t.Fatalf("insertRows = %d, %v", n, err)
	}
	if len(ex.queries) != 1 || strings.Count(ex.queries[0], "(?, ?)") != 3 {
		t.Fatalf("queries = %q", ex.queries)
	}

	ex = &fakeExecer{failAt: 1}
	if _, err := insertRows(ctx, ex, "co2", cols, rows); err == nil || !strings.Contains(err.Error(), "duplicate entry") {
		t.Fatalf("err = %v", err)
	}
	if _, err := insertRows(ctx, &fakeExecer{}, "co2", nil, rows); err == nil {
		t.Fatalf("expected error for empty columns")
	}
}
