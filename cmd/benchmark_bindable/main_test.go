package main

import (
	"testing"

	"github.com/delaneyj/propparty/erased"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph(t *testing.T) {
	t.Run("bound and plain evaluation agree", func(t *testing.T) {
		for _, static := range []float64{1, 0.5, 0} {
			g, err := build(shape{width: 8, layers: 5, fanIn: 3, static: static, readFrac: 1, writes: 200})
			require.NoError(t, err)

			sum, err := g.run()
			require.NoError(t, err)
			want, err := g.verify()
			require.NoError(t, err)
			assert.Equal(t, want, sum)
			assert.Positive(t, g.recomps)
		}
	})

	t.Run("partial reads", func(t *testing.T) {
		g, err := build(shape{width: 10, layers: 3, fanIn: 2, static: 1, readFrac: 0.2, writes: 50})
		require.NoError(t, err)
		assert.Len(t, g.leaves, 2)

		sum, err := g.run()
		require.NoError(t, err)
		want, err := g.verify()
		require.NoError(t, err)
		assert.Equal(t, want, sum)
	})

	t.Run("sources are written by name", func(t *testing.T) {
		g, err := build(shape{width: 4, layers: 1, fanIn: 2, static: 1, readFrac: 1, writes: 1})
		require.NoError(t, err)

		require.NoError(t, bankProps.Set(g.bank, sourceName(3), erased.Of(100)))
		assert.Equal(t, 100, g.bank.sources[3].Read())
		// node 2 reads sources 2 and 3
		assert.Equal(t, 102, g.values[0][2].Read())

		err = bankProps.Set(g.bank, sourceName(3), erased.Of("100"))
		assert.ErrorIs(t, err, erased.ErrTypeMismatch)
	})
}
