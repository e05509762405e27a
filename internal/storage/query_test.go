package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhereEmpty(t *testing.T) {
	var w Where
	assert.Empty(t, w.SQL())
	assert.Equal(t, " LIMIT $1 OFFSET $2", w.Limit(10, 0))
	assert.Equal(t, []any{10, 0}, w.Args())
}

func TestWhereBuildsPlaceholdersInOrder(t *testing.T) {
	var w Where
	w.Eq("study_id", "s-1")
	w.Search("50%_off", "title", "code")
	w.Since("scheduled_at", "t0")

	assert.Equal(t,
		" WHERE study_id = $1 AND (title ILIKE $2 OR code ILIKE $2) AND scheduled_at >= $3",
		w.SQL())
	assert.Equal(t, " LIMIT $4 OFFSET $5", w.Limit(20, 40))
	assert.Equal(t, []any{"s-1", `%50\%\_off%`, "t0", 20, 40}, w.Args())
}
