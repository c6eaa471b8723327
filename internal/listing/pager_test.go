package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPager_StartsOnFirstPage(t *testing.T) {
	p := NewPager()
	assert.Equal(t, 1, p.Page())
	assert.False(t, p.HasPrev())
	assert.False(t, p.HasNext())
}

func TestPager_StaysWithinBounds(t *testing.T) {
	p := NewPager()
	p.SetTotal(2)

	assert.False(t, p.Prev())
	assert.Equal(t, 1, p.Page())

	assert.True(t, p.Next())
	assert.Equal(t, 2, p.Page())

	assert.False(t, p.Next())
	assert.Equal(t, 2, p.Page())

	assert.True(t, p.Prev())
	assert.Equal(t, 1, p.Page())
}

func TestPager_RandomWalkNeverLeavesRange(t *testing.T) {
	p := NewPager()
	p.SetTotal(3)
	moves := "nnnnpnppppnnpnnnnpp"
	for _, m := range moves {
		if m == 'n' {
			p.Next()
		} else {
			p.Prev()
		}
		assert.GreaterOrEqual(t, p.Page(), 1)
		assert.LessOrEqual(t, p.Page(), p.TotalPages())
	}
}

func TestPager_ShrinkingTotalClamps(t *testing.T) {
	p := NewPager()
	p.SetTotal(5)
	p.Goto(5)

	assert.True(t, p.SetTotal(3))
	assert.Equal(t, 3, p.Page())
	assert.False(t, p.HasNext())
}

func TestPager_GotoClamps(t *testing.T) {
	p := NewPager()
	assert.True(t, p.Goto(4), "upper bound unknown before the first response")
	assert.Equal(t, 4, p.Page())

	p.SetTotal(2)
	assert.Equal(t, 2, p.Page())

	p.Goto(-3)
	assert.Equal(t, 1, p.Page())
	p.Goto(99)
	assert.Equal(t, 2, p.Page())
}

func TestPager_ZeroTotalMeansSinglePage(t *testing.T) {
	p := NewPager()
	p.SetTotal(0)
	assert.Equal(t, 1, p.TotalPages())
	assert.False(t, p.Next())
}
