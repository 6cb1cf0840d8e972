package locale_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/daap14/coachgate/internal/catalog"
	"github.com/daap14/coachgate/internal/locale"
	"github.com/daap14/coachgate/internal/tier"
	"github.com/daap14/coachgate/internal/usage"
)

var chatCoach = catalog.ToolPolicy{
	ID:      "chat-coach",
	Name:    "Chat-coach",
	MinTier: tier.Sociaal,
	Quota:   &catalog.Quota{Limit: 25, Period: catalog.PeriodWeekly},
}

func newTranslator(t *testing.T, lang string) *locale.Translator {
	t.Helper()
	tr, err := locale.New(lang)
	require.NoError(t, err)
	return tr
}

func TestNew_UnsupportedDefault(t *testing.T) {
	t.Parallel()

	_, err := locale.New("fr")
	assert.Error(t, err)

	_, err = locale.New("not a tag!")
	assert.Error(t, err)
}

func TestNegotiate(t *testing.T) {
	t.Parallel()

	tr := newTranslator(t, "nl")

	tests := []struct {
		header string
		want   language.Tag
	}{
		{"", language.Dutch},
		{"en", language.English},
		{"en-GB,en;q=0.9", language.English},
		{"nl-BE", language.Dutch},
		{"fr-FR,en;q=0.5", language.English},
		{"de", language.Dutch},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tr.Negotiate(tc.header), tc.header)
	}
}

func TestNegotiate_EnglishDefault(t *testing.T) {
	t.Parallel()

	tr := newTranslator(t, "en")
	assert.Equal(t, language.English, tr.Negotiate("de"))
	assert.Equal(t, language.English, tr.Default())
}

func TestContext(t *testing.T) {
	t.Parallel()

	_, ok := locale.FromContext(context.Background())
	assert.False(t, ok)

	ctx := locale.WithLanguage(context.Background(), language.English)
	tag, ok := locale.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, language.English, tag)
}

func TestLocked(t *testing.T) {
	t.Parallel()

	tr := newTranslator(t, "nl")

	nl := tr.Locked(context.Background(), chatCoach)
	assert.Equal(t, "Chat-coach is beschikbaar vanaf het Sociaal-abonnement. Upgrade om deze tool te ontgrendelen.", nl)

	en := tr.Locked(locale.WithLanguage(context.Background(), language.English), chatCoach)
	assert.Equal(t, "Chat-coach is available from the Sociaal plan. Upgrade to unlock this tool.", en)
}

func TestLocked_FallsBackToToolID(t *testing.T) {
	t.Parallel()

	tr := newTranslator(t, "en")
	msg := tr.Locked(context.Background(), catalog.ToolPolicy{ID: "date-planner", MinTier: tier.Pro})
	assert.Contains(t, msg, "date-planner")
	assert.Contains(t, msg, "Pro")
}

func TestLimited(t *testing.T) {
	t.Parallel()

	tr := newTranslator(t, "nl")
	count := usage.Count{
		Count:    25,
		Limit:    25,
		Period:   catalog.PeriodWeekly,
		ResetsAt: time.Date(2026, 3, 23, 0, 0, 0, 0, time.UTC),
	}

	nl := tr.Limited(context.Background(), chatCoach, count)
	assert.Equal(t, "Je hebt je 25 keer voor deze week gebruikt. Vanaf 23-03-2026 kun je weer verder.", nl)

	en := tr.Limited(locale.WithLanguage(context.Background(), language.English), chatCoach, count)
	assert.Equal(t, "You've used all 25 uses for this week. You can continue from Mar 23, 2026.", en)
}

func TestLimited_Daily(t *testing.T) {
	t.Parallel()

	tr := newTranslator(t, "en")
	msg := tr.Limited(context.Background(), chatCoach, usage.Count{Limit: 5, Period: catalog.PeriodDaily})
	assert.Equal(t, "You've used all 5 uses for today. You can continue tomorrow.", msg)
}

func TestUpgradeStep_Plural(t *testing.T) {
	t.Parallel()

	tr := newTranslator(t, "en")

	one := tr.UpgradeStep(context.Background(), tier.Core, []string{"Veiligheidscheck"})
	assert.Equal(t, "Upgrade to Core to unlock Veiligheidscheck.", one)

	many := tr.UpgradeStep(context.Background(), tier.Core, []string{"Veiligheidscheck", "Profielanalyse"})
	assert.Equal(t, "Upgrade to Core to unlock 2 tools: Veiligheidscheck, Profielanalyse.", many)
}
