package advisor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/coachgate/internal/advisor"
	"github.com/daap14/coachgate/internal/catalog"
	"github.com/daap14/coachgate/internal/tier"
)

func newAdvisor(t *testing.T) *advisor.Advisor {
	t.Helper()
	c, err := catalog.New(1, []catalog.ToolPolicy{
		{ID: "gesprek-starter", MinTier: tier.Free},
		{ID: "veiligheidscheck", MinTier: tier.Core},
		{ID: "chat-coach", MinTier: tier.Sociaal},
		{ID: "date-planner", MinTier: tier.Pro},
		{ID: "profiel-analyse", MinTier: tier.Core},
	})
	require.NoError(t, err)
	return advisor.New(c)
}

func TestLockedToolsForTier(t *testing.T) {
	t.Parallel()

	a := newAdvisor(t)

	assert.Equal(t,
		[]catalog.ToolID{"veiligheidscheck", "chat-coach", "date-planner", "profiel-analyse"},
		a.LockedToolsForTier(tier.Free))
	assert.Equal(t,
		[]catalog.ToolID{"veiligheidscheck", "date-planner", "profiel-analyse"},
		a.LockedToolsForTier(tier.Sociaal))
	assert.Equal(t, []catalog.ToolID{"date-planner"}, a.LockedToolsForTier(tier.Transformatie))
	assert.Empty(t, a.LockedToolsForTier(tier.VIP))
}

func TestCheapestUnlockFor(t *testing.T) {
	t.Parallel()

	a := newAdvisor(t)

	got, err := a.CheapestUnlockFor("chat-coach")
	require.NoError(t, err)
	assert.Equal(t, tier.Sociaal, got)

	_, err = a.CheapestUnlockFor("ghost")
	assert.ErrorIs(t, err, catalog.ErrUnknownTool)
}

func TestPlan(t *testing.T) {
	t.Parallel()

	a := newAdvisor(t)

	steps := a.Plan(tier.Kickstart)
	require.Len(t, steps, 3)

	assert.Equal(t, tier.Sociaal, steps[0].Tier)
	assert.Equal(t, tier.Core, steps[1].Tier)
	require.Len(t, steps[1].Tools, 2)
	assert.Equal(t, catalog.ToolID("veiligheidscheck"), steps[1].Tools[0].ID)
	assert.Equal(t, catalog.ToolID("profiel-analyse"), steps[1].Tools[1].ID)
	assert.Equal(t, tier.Pro, steps[2].Tier)

	assert.Empty(t, a.Plan(tier.VIP))
}

func TestPlan_MatchesLockedTools(t *testing.T) {
	t.Parallel()

	a := newAdvisor(t)
	for _, tr := range tier.All() {
		n := 0
		for _, s := range a.Plan(tr) {
			assert.Greater(t, s.Tier.Rank(), tr.Rank())
			n += len(s.Tools)
		}
		assert.Equal(t, len(a.LockedToolsForTier(tr)), n, tr.String())
	}
}
