package plate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeExactPatterns(t *testing.T) {
	n := NewNormalizer(DefaultConfig())

	cases := []struct {
		name  string
		raw   string
		plate string
	}{
		{"standard format with noise", "A B C-1 2 3", "ABC123"},
		{"new format", "abc12d", "ABC12D"},
		{"motorcycle format", "AB 1234", "AB1234"},
		{"reverse format", "123-abc", "123ABC"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := n.Normalize(tc.raw, 60)
			require.True(t, res.Success)
			assert.Equal(t, tc.plate, res.Plate)
			assert.True(t, res.PatternMatch)
		})
	}
}

func TestNormalizeConfidenceAdjustment(t *testing.T) {
	n := NewNormalizer(DefaultConfig())

	t.Run("pattern match gets the floor", func(t *testing.T) {
		res := n.Normalize("A B C-1 2 3", 60)
		assert.Equal(t, 75, res.Confidence)
	})

	t.Run("pattern match keeps higher raw confidence", func(t *testing.T) {
		res := n.Normalize("ABC123", 92)
		assert.Equal(t, 92, res.Confidence)
	})

	t.Run("fallback scales raw confidence with a floor", func(t *testing.T) {
		// AAABBB matches no pattern but has the fallback length.
		res := n.Normalize("AAABBB", 80)
		require.True(t, res.Success)
		assert.False(t, res.PatternMatch)
		assert.Equal(t, 64, res.Confidence)

		low := n.Normalize("AAABBB", 30)
		assert.Equal(t, 50, low.Confidence)
	})

	t.Run("no candidate is capped low", func(t *testing.T) {
		res := n.Normalize("x7#9q", 30)
		require.False(t, res.Success)
		assert.Empty(t, res.Plate)
		assert.LessOrEqual(t, res.Confidence, 40)
	})

	t.Run("no candidate with high raw confidence is still capped", func(t *testing.T) {
		res := n.Normalize("x7#9q", 95)
		assert.Equal(t, 40, res.Confidence)
	})
}

func TestNormalizeSlidingWindow(t *testing.T) {
	n := NewNormalizer(DefaultConfig())

	t.Run("plate embedded in longer text", func(t *testing.T) {
		res := n.Normalize("XXABC123YY", 55)
		require.True(t, res.Success)
		assert.Equal(t, "ABC123", res.Plate)
		assert.True(t, res.PatternMatch)
	})

	t.Run("earlier offset wins over later one", func(t *testing.T) {
		// Both AB1234 (offset 0) and 123ABC-like windows exist; offset order
		// decides.
		res := n.Normalize("AB1234ABC", 55)
		require.True(t, res.Success)
		assert.Equal(t, "AB1234", res.Plate)
	})

	t.Run("match found past a leading garbage character", func(t *testing.T) {
		res := n.Normalize("ZABC12D", 55)
		require.True(t, res.Success)
		assert.Equal(t, "ABC12D", res.Plate)
	})
}

func TestNormalizeFallback(t *testing.T) {
	n := NewNormalizer(DefaultConfig())

	t.Run("six clean characters accepted without a format", func(t *testing.T) {
		res := n.Normalize("1A2B3C", 70)
		require.True(t, res.Success)
		assert.Equal(t, "1A2B3C", res.Plate)
		assert.False(t, res.PatternMatch)
	})

	t.Run("seven characters without a match is rejected", func(t *testing.T) {
		res := n.Normalize("1A2B3C4", 70)
		assert.False(t, res.Success)
	})
}

func TestNormalizeDiagnosticFields(t *testing.T) {
	n := NewNormalizer(DefaultConfig())
	res := n.Normalize("  a b?c-123  ", 50)
	assert.Equal(t, "a b?c-123", res.RawText)
	assert.Equal(t, "ABC123", res.CleanedText)
}

func TestNormalizerConfigurableFloor(t *testing.T) {
	n := NewNormalizer(Config{PatternMatchFloor: 90})
	res := n.Normalize("ABC123", 60)
	assert.Equal(t, 90, res.Confidence)
}
