/*
Package xrel is a small, stdlib-style record-to-relation mapping layer for
database/sql. You declare a record shape once; xrel derives the column order,
builds the INSERT and SELECT statements for it, and converts result rows back
into records using the same order, so what you write is what you read back.

# Overview

A Relation is a table name plus an ordered list of typed fields. Build one
explicitly with NewRelation, or derive it from a struct with Describe:

	type Payment struct {
	    CustomerID  int32   `db:"customer_id"`
	    Amount      int32   `db:"amount"`
	    AccountName *string `db:"account_name"`
	}

	payments := xrel.MustDescribe[Payment]("payment")
	payments.BuildSelect()
	// SELECT customer_id, amount, account_name FROM payment
	payments.BuildInsert(batch).SQL
	// INSERT INTO payment (customer_id, amount, account_name) VALUES (?, ?, ?)

Column text, placeholder text and decoding all walk the same field order.
Relations and tables are immutable, so this holds under any concurrency.

# Statements

INSERT text never depends on the batch size. BuildInsert returns one argument
row per record; ExecInsert prepares the statement once and executes it once per
row. SELECT always reads every row of the relation: there is no WHERE, ORDER BY
or LIMIT, and row order is whatever the database returns.

Placeholder syntax follows the driver: "?" by default, or "$n", "@pn" and ":n"
via WithPlaceholder (see PlaceholderFor).

# Types

Each field is one of int, float, bool, string, bytes or time, either required
or optional. Decoded values use int64, float64, bool, string, []byte and
time.Time; an absent optional value is nil (a nil pointer or an invalid
sql.NullX in struct form). Common driver representations are accepted, e.g.
integers arriving as []byte text.

# Error handling

  - Malformed relations or structs fail at declaration time with *SchemaError
    (errors.Is(err, ErrSchema)).
  - Rows fail with *DecodeError: ArityMismatch, TypeMismatch or UnexpectedNull.
    Decoding is fail-fast; the error names the row and field.
  - Driver errors are returned unchanged. Nothing is retried.
*/
package xrel
