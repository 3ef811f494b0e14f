package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsConflict(t *testing.T) {
	uniqueViolation := &pgconn.PgError{Code: "23505"}
	if !IsConflict(uniqueViolation) {
		t.Fatal("expected unique violation to classify as conflict")
	}
	if !IsConflict(fmt.Errorf("insert appointment: %w", uniqueViolation)) {
		t.Fatal("expected wrapped unique violation to classify as conflict")
	}
	if IsConflict(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation should not classify as conflict")
	}
	if IsConflict(errors.New("boom")) {
		t.Fatal("plain error should not classify as conflict")
	}
	if IsConflict(nil) {
		t.Fatal("nil should not classify as conflict")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(pgx.ErrNoRows) {
		t.Fatal("expected ErrNoRows to classify as not found")
	}
	if !IsNotFound(fmt.Errorf("get appointment: %w", pgx.ErrNoRows)) {
		t.Fatal("expected wrapped ErrNoRows to classify as not found")
	}
	if IsNotFound(errors.New("boom")) {
		t.Fatal("plain error should not classify as not found")
	}
}
