//go:build cgo

package xrel

import (
	"context"
	"database/sql"
	"reflect"
	"slices"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func openSQLite(t *testing.T, ddl string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1) // one connection, one in-memory database
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Exec(ddl); err != nil {
		t.Fatalf("ddl: %v", err)
	}
	return db
}

func TestSQLite_PaymentRoundTrip(t *testing.T) {
	db := openSQLite(t, `CREATE TABLE payment (customer_id INTEGER NOT NULL, amount INTEGER NOT NULL, account_name TEXT)`)
	payments := MustDescribe[Payment]("payment", WithPlaceholder(PlaceholderFor("sqlite3")))
	ctx := context.Background()

	in := samplePayments()
	n, err := InsertAll(ctx, db, payments, in)
	if err != nil {
		t.Fatalf("InsertAll: %v", err)
	}
	eq(t, n, int64(len(in)), "rows affected")

	out, err := All(ctx, db, payments)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	// SELECT has no ORDER BY: compare as multisets.
	byID := func(a, b Payment) int { return int(a.CustomerID - b.CustomerID) }
	slices.SortFunc(out, byID)
	slices.SortFunc(in, byID)
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("round trip:\n got=%+v\nwant=%+v", out, in)
	}
}

func TestSQLite_EmptyBlobRoundTrip(t *testing.T) {
	db := openSQLite(t, `CREATE TABLE blobs (data BLOB NOT NULL)`)
	rel := MustRelation("blobs", []Field{{Name: "data", Position: 0, Type: Bytes}})
	ctx := context.Background()

	if _, err := InsertRecords(ctx, db, rel, []Record{{[]byte(nil)}}); err != nil {
		t.Fatalf("InsertRecords: %v", err)
	}
	out, err := AllRecords(ctx, db, rel)
	if err != nil {
		t.Fatalf("AllRecords: %v", err)
	}
	eq(t, len(out), 1, "records")
	if b, ok := out[0][0].([]byte); !ok || len(b) != 0 {
		t.Fatalf("want empty blob, got %#v", out[0][0])
	}
}

func TestSQLite_DynamicRecords(t *testing.T) {
	db := openSQLite(t, `CREATE TABLE event (id INTEGER NOT NULL, ratio REAL NOT NULL, ok BOOLEAN NOT NULL, body BLOB NOT NULL, at DATETIME, note TEXT)`)
	rel := MustRelation("event", []Field{
		{Name: "id", Position: 0, Type: Int},
		{Name: "ratio", Position: 1, Type: Float},
		{Name: "ok", Position: 2, Type: Bool},
		{Name: "body", Position: 3, Type: Bytes},
		{Name: "at", Position: 4, Type: OptTime},
		{Name: "note", Position: 5, Type: OptString},
	})
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	in := []Record{
		{int64(1), 0.5, true, []byte("a"), at, "first"},
		{int64(2), 1.25, false, []byte("b"), nil, nil},
	}
	if _, err := InsertRecords(ctx, db, rel, in); err != nil {
		t.Fatalf("InsertRecords: %v", err)
	}
	out, err := AllRecords(ctx, db, rel)
	if err != nil {
		t.Fatalf("AllRecords: %v", err)
	}
	eq(t, len(out), 2, "records")
	slices.SortFunc(out, func(a, b Record) int { return int(a[0].(int64) - b[0].(int64)) })
	for i := range in {
		eq(t, len(out[i]), rel.Len(), "width")
		eqSlice(t, out[i][:4], in[i][:4], "scalars")
		if in[i][4] == nil {
			if out[i][4] != nil {
				t.Fatalf("row %d: want NULL time, got %v", i, out[i][4])
			}
		} else if !out[i][4].(time.Time).Equal(at) {
			t.Fatalf("row %d: time %v want %v", i, out[i][4], at)
		}
		if !reflect.DeepEqual(out[i][5], in[i][5]) {
			t.Fatalf("row %d: note %#v want %#v", i, out[i][5], in[i][5])
		}
	}
}
