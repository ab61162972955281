package repository_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/triage/pkg/repository"
)

var (
	errNotFound = errors.New("not found")
	errExists   = errors.New("exists")
	errInvalid  = errors.New("invalid")
)

func TestErrorsMap(t *testing.T) {
	mapper := repository.Errors{
		NotFound:  errNotFound,
		Duplicate: errExists,
		Invalid:   errInvalid,
	}
	other := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, errNotFound},
		{"wrapped no rows", fmt.Errorf("find: %w", sql.ErrNoRows), errNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, errExists},
		{"check", &pgconn.PgError{Code: "23514", ConstraintName: "complaints_priority_check"}, errInvalid},
		{"not null", &pgconn.PgError{Code: "23502", ColumnName: "title"}, errInvalid},
		{"other pg", &pgconn.PgError{Code: "40001"}, nil},
		{"other", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapper.Map(tt.err)
			if tt.want == nil {
				if tt.err == nil && got != nil {
					t.Errorf("Map(nil) = %v", got)
				}
				if tt.err != nil && got != tt.err {
					t.Errorf("Map() = %v, want passthrough", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("Map() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorsMapNamesConstraint(t *testing.T) {
	mapper := repository.Errors{Invalid: errInvalid}
	err := mapper.Map(&pgconn.PgError{Code: "23514", ConstraintName: "complaints_escalation_level_check"})

	if err == nil || err.Error() != "invalid: complaints_escalation_level_check" {
		t.Errorf("Map() = %v", err)
	}
}

func TestErrorsMapUnsetFields(t *testing.T) {
	mapper := repository.Errors{}
	pgErr := &pgconn.PgError{Code: "23505"}

	if got := mapper.Map(pgErr); got != pgErr {
		t.Errorf("Map() = %v, want passthrough", got)
	}
	if got := mapper.Map(sql.ErrNoRows); !errors.Is(got, sql.ErrNoRows) {
		t.Errorf("Map() = %v, want sql.ErrNoRows", got)
	}
}
