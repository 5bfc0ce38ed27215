package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelForXP(t *testing.T) {
	cases := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{105, 2},
		{199, 2},
		{200, 3},
		{995, 10},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, LevelForXP(tc.xp), "xp=%d", tc.xp)
	}
}

func TestQuestXPRewardsHasNoZeroRewards(t *testing.T) {
	for slug, reward := range QuestXPRewards {
		require.Positive(t, reward, "quest %s", slug)
	}
}
