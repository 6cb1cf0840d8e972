// Package locale renders the user-facing copy of access decisions and
// upgrade plans in the supported languages.
package locale

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/daap14/coachgate/internal/catalog"
	"github.com/daap14/coachgate/internal/tier"
	"github.com/daap14/coachgate/internal/usage"
)

//go:embed locales/active.*.toml
var localeFS embed.FS

// DefaultLang is used when neither the request nor the configuration names
// a supported language.
const DefaultLang = "nl"

// Supported lists the languages with a message file.
var Supported = []language.Tag{language.Dutch, language.English}

var (
	msgDateLayout = &i18n.Message{ID: "date_layout", Other: "02-01-2006"}
	msgToolLocked = &i18n.Message{
		ID:    "tool_locked",
		Other: "{{.Tool}} is beschikbaar vanaf het {{.Tier}}-abonnement. Upgrade om deze tool te ontgrendelen.",
	}
	msgLimitReached = map[catalog.PeriodKind]*i18n.Message{
		catalog.PeriodDaily: {
			ID:    "limit_reached_daily",
			Other: "Je hebt je {{.Limit}} keer voor vandaag gebruikt. Morgen kun je weer verder.",
		},
		catalog.PeriodWeekly: {
			ID:    "limit_reached_weekly",
			Other: "Je hebt je {{.Limit}} keer voor deze week gebruikt. Vanaf {{.ResetsAt}} kun je weer verder.",
		},
		catalog.PeriodMonthly: {
			ID:    "limit_reached_monthly",
			Other: "Je hebt je {{.Limit}} keer voor deze maand gebruikt. Vanaf {{.ResetsAt}} kun je weer verder.",
		},
	}
	msgUpgradePlanStep = &i18n.Message{
		ID:    "upgrade_plan_step",
		One:   "Upgrade naar {{.Tier}} om {{.Tools}} te ontgrendelen.",
		Other: "Upgrade naar {{.Tier}} om {{.Count}} tools te ontgrendelen: {{.Tools}}.",
	}
)

type ctxKey struct{}

// WithLanguage returns a copy of ctx carrying the negotiated language.
func WithLanguage(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, ctxKey{}, tag)
}

// FromContext returns the language stored by WithLanguage.
func FromContext(ctx context.Context) (language.Tag, bool) {
	tag, ok := ctx.Value(ctxKey{}).(language.Tag)
	return tag, ok
}

// Translator renders localized copy from the embedded message files.
type Translator struct {
	bundle   *i18n.Bundle
	tags     []language.Tag
	matcher  language.Matcher
	fallback language.Tag
}

// New loads the embedded message files. defaultLang is the language used
// when a request does not negotiate one; it must be supported.
func New(defaultLang string) (*Translator, error) {
	if defaultLang == "" {
		defaultLang = DefaultLang
	}
	fallback, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("parsing default language %q: %w", defaultLang, err)
	}

	bundle := i18n.NewBundle(language.Dutch)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("reading embedded locales: %w", err)
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+f.Name()); err != nil {
			return nil, fmt.Errorf("loading %s: %w", f.Name(), err)
		}
	}

	// The fallback goes first: a matcher answers with its first tag when
	// nothing matches.
	tags := []language.Tag{fallback}
	supported := false
	for _, t := range Supported {
		if t == fallback {
			supported = true
			continue
		}
		tags = append(tags, t)
	}
	if !supported {
		return nil, fmt.Errorf("default language %q has no message file", defaultLang)
	}

	return &Translator{
		bundle:   bundle,
		tags:     tags,
		matcher:  language.NewMatcher(tags),
		fallback: fallback,
	}, nil
}

// Negotiate picks the best supported language for an Accept-Language header.
func (t *Translator) Negotiate(acceptLanguage string) language.Tag {
	if strings.TrimSpace(acceptLanguage) == "" {
		return t.fallback
	}
	_, idx := language.MatchStrings(t.matcher, acceptLanguage)
	return t.tags[idx]
}

// Default is the language used when none was negotiated.
func (t *Translator) Default() language.Tag {
	return t.fallback
}

// Locked renders the copy shown for a tool the user's tier does not reach.
func (t *Translator) Locked(ctx context.Context, policy catalog.ToolPolicy) string {
	return t.localize(ctx, &i18n.LocalizeConfig{
		DefaultMessage: msgToolLocked,
		TemplateData: map[string]any{
			"Tool": policy.DisplayName(),
			"Tier": policy.MinTier.DisplayName(),
		},
	})
}

// Limited renders the copy shown when a tool's quota is used up.
func (t *Translator) Limited(ctx context.Context, policy catalog.ToolPolicy, count usage.Count) string {
	msg, ok := msgLimitReached[count.Period]
	if !ok {
		return ""
	}
	localizer := t.localizer(ctx)
	return t.localizeWith(localizer, &i18n.LocalizeConfig{
		DefaultMessage: msg,
		TemplateData: map[string]any{
			"Tool":     policy.DisplayName(),
			"Limit":    count.Limit,
			"ResetsAt": count.ResetsAt.Format(t.localizeWith(localizer, &i18n.LocalizeConfig{DefaultMessage: msgDateLayout})),
		},
	})
}

// UpgradeStep renders one line of an upgrade plan.
func (t *Translator) UpgradeStep(ctx context.Context, to tier.Tier, toolNames []string) string {
	return t.localize(ctx, &i18n.LocalizeConfig{
		DefaultMessage: msgUpgradePlanStep,
		PluralCount:    len(toolNames),
		TemplateData: map[string]any{
			"Tier":  to.DisplayName(),
			"Count": len(toolNames),
			"Tools": strings.Join(toolNames, ", "),
		},
	})
}

func (t *Translator) localizer(ctx context.Context) *i18n.Localizer {
	tag, ok := FromContext(ctx)
	if !ok {
		tag = t.fallback
	}
	return i18n.NewLocalizer(t.bundle, tag.String(), t.fallback.String())
}

func (t *Translator) localize(ctx context.Context, cfg *i18n.LocalizeConfig) string {
	return t.localizeWith(t.localizer(ctx), cfg)
}

func (t *Translator) localizeWith(l *i18n.Localizer, cfg *i18n.LocalizeConfig) string {
	msg, err := l.Localize(cfg)
	if err != nil {
		slog.Warn("localizing message failed", "messageId", cfg.DefaultMessage.ID, "error", err)
	}
	return msg
}
