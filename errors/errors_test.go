package errors

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrap(sql.ErrNoRows, "failed to load candidate")
	assert.True(t, Is(err, sql.ErrNoRows))
	assert.Contains(t, err.Error(), "failed to load candidate")
}

func TestWithDetailAccumulates(t *testing.T) {
	err := New("call placement failed")
	err = WithDetail(err, fmt.Sprintf("Candidate ID: %d", 42))
	err = WithDetail(err, "Attempt: 2")

	details := GetAllDetails(err)
	require.Len(t, details, 2)
	assert.Contains(t, details, "Candidate ID: 42")
	assert.Contains(t, details, "Attempt: 2")
}

func TestWrapNilIsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "should vanish"))
}
