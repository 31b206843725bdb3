package voting

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestTranslateVoteError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil passes through", nil, nil},
		{
			"unique violation becomes duplicate vote",
			&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "votes_event_id_email_hash_key"},
			ErrDuplicateVote,
		},
		{
			"wrapped unique violation still detected",
			fmt.Errorf("insert vote: %w", &pgconn.PgError{Code: pgUniqueViolation}),
			ErrDuplicateVote,
		},
		{
			"other pg errors pass through",
			&pgconn.PgError{Code: "23503"}, // foreign key violation
			nil,                            // checked separately below: must NOT be ErrDuplicateVote
		},
		{
			"plain errors pass through",
			errors.New("connection reset"),
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateVoteError(tt.in)
			if tt.want != nil || tt.in == nil {
				if !errors.Is(got, tt.want) && got != tt.want {
					t.Errorf("translateVoteError() = %v, want %v", got, tt.want)
				}
				return
			}
			// Pass-through cases: same error back, never ErrDuplicateVote.
			if errors.Is(got, ErrDuplicateVote) {
				t.Errorf("translateVoteError(%v) = ErrDuplicateVote, want pass-through", tt.in)
			}
			if !errors.Is(got, tt.in) {
				t.Errorf("translateVoteError() = %v, want the original error %v", got, tt.in)
			}
		})
	}
}
