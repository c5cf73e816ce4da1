package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, 40, NormalizeLimit(40))
	assert.Equal(t, MaxLimit, NormalizeLimit(5000))
	assert.Equal(t, 41, LimitWithBuffer(40))
}

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{
		CreatedAt: time.Date(2026, 2, 14, 10, 30, 0, 123456789, time.UTC),
		ID:        uuid.New(),
	}

	out, err := ParseCursor(EncodeCursor(in))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.ID, out.ID)
}

func TestParseCursorEmpty(t *testing.T) {
	out, err := ParseCursor("   ")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestParseCursorInvalid(t *testing.T) {
	_, err := ParseCursor("not-base64!!")
	require.Error(t, err)

	_, err = ParseCursor("bm8tcGlwZQ==") // decodes to "no-pipe"
	require.Error(t, err)
}
