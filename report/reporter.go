package report

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"commitbot/lifecycle"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	ColorInfo  = 0x00ff00 // Green
	ColorWarn  = 0xffff00 // Yellow
	ColorError = 0xff0000 // Red

	// Discord limits, counted in characters.
	maxFieldValue  = 1024
	maxDescription = 4096
	maxEmbedChars  = 6000
	maxEmbedFields = 25

	// room kept for the " (n/m)" title suffix of split reports
	pageSuffixReserve = 16
)

// EmbedSender is the part of *discordgo.Session the reporter needs.
type EmbedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Reporter sends run reports to the admin channel.
type Reporter struct {
	sender    EmbedSender
	channelID string
	logger    *zap.Logger
}

// New creates a reporter. With an empty channelID reports are only logged.
func New(sender EmbedSender, channelID string, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if channelID == "" {
		logger.Warn("bot.admin_channel_id is not set, run reports go to the log only")
	}
	return &Reporter{sender: sender, channelID: channelID, logger: logger.Named("report")}
}

// SendRunReport delivers the result as one or more embeds, in order.
func (r *Reporter) SendRunReport(ctx context.Context, result *lifecycle.Result) error {
	if r.sender == nil || r.channelID == "" {
		r.logger.Info("Run report",
			zap.String("kind", string(result.Kind)),
			zap.String("outcome", result.Outcome()),
			zap.String("summary", result.Summary()))
		return nil
	}

	embeds := BuildEmbeds(result)
	for i, embed := range embeds {
		if _, err := r.sender.ChannelMessageSendEmbed(r.channelID, embed, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("error sending run report part %d/%d to Discord: %w", i+1, len(embeds), err)
		}
	}
	if len(embeds) > 1 {
		r.logger.Debug("Run report split", zap.Int("parts", len(embeds)))
	}
	return nil
}

// BuildEmbeds renders a run result. Fields are packed into as many embeds as
// needed to keep each one under Discord's total size and field count limits;
// a split report gets "(n/m)" appended to every title.
func BuildEmbeds(result *lifecycle.Result) []*discordgo.MessageEmbed {
	first := newEmbed(result)

	var fields []*discordgo.MessageEmbedField
	switch {
	case result.Error != "":
		first.Description = truncate("The run was aborted: "+result.Error, maxDescription)
	case result.Skipped:
		first.Description = "Already ran today, nothing was changed."
	case result.Stats != nil:
		fields = dailyFields(result.Stats)
	case result.Weekly != nil:
		fields = weeklyFields(result.Weekly)
	}

	embeds := []*discordgo.MessageEmbed{first}
	current, size := first, embedChars(first)
	for _, f := range fields {
		n := chars(f.Name) + chars(f.Value)
		if len(current.Fields) > 0 && (len(current.Fields) == maxEmbedFields || size+n > maxEmbedChars-pageSuffixReserve) {
			current = newEmbed(result)
			size = embedChars(current)
			embeds = append(embeds, current)
		}
		current.Fields = append(current.Fields, f)
		size += n
	}

	if len(embeds) > 1 {
		for i, e := range embeds {
			e.Title = fmt.Sprintf("%s (%d/%d)", e.Title, i+1, len(embeds))
		}
	}
	return embeds
}

func newEmbed(result *lifecycle.Result) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:     title(result),
		Color:     color(result),
		Timestamp: result.FinishedAt.Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Execution time: %d ms", result.ExecutionTimeMS),
		},
	}
}

// embedChars counts what Discord counts towards the 6000 character total.
func embedChars(e *discordgo.MessageEmbed) int {
	n := chars(e.Title) + chars(e.Description)
	if e.Footer != nil {
		n += chars(e.Footer.Text)
	}
	for _, f := range e.Fields {
		n += chars(f.Name) + chars(f.Value)
	}
	return n
}

func chars(s string) int {
	return utf8.RuneCountInString(s)
}

func title(result *lifecycle.Result) string {
	switch result.Kind {
	case lifecycle.KindWeekly:
		return "Weekly cycle report"
	default:
		return "Daily cycle report"
	}
}

func color(result *lifecycle.Result) int {
	switch {
	case result.Error != "":
		return ColorError
	case result.Skipped:
		return ColorWarn
	case result.Stats != nil && (len(result.Stats.Failures) > 0 || len(result.Stats.Dangerous) > 0):
		return ColorWarn
	case result.Weekly != nil && len(result.Weekly.Failures) > 0:
		return ColorWarn
	default:
		return ColorInfo
	}
}

func dailyFields(s *lifecycle.Stats) []*discordgo.MessageEmbedField {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Active", Value: fmt.Sprint(s.TotalActive), Inline: true},
		{Name: "Posted", Value: fmt.Sprint(s.Posted), Inline: true},
		{Name: "Missed", Value: fmt.Sprint(s.NotPosted), Inline: true},
	}
	fields = appendEntries(fields, "New strikes", s.NewStrikes)
	fields = appendEntries(fields, "At risk (3 strikes)", s.AtRisk)
	fields = appendEntries(fields, "Auto-paused", s.AutoPaused)
	fields = appendEntries(fields, "Pause completed", s.PauseCompleted)
	fields = appendEntries(fields, "Removed after pause", s.PauseExpiredRemoved)

	if len(s.CurrentlyPaused) > 0 {
		lines := make([]string, 0, len(s.CurrentlyPaused))
		for _, p := range s.CurrentlyPaused {
			lines = append(lines, fmt.Sprintf("%s until %s", p.Name(), p.Until))
		}
		fields = append(fields, listField("On pause", len(lines), lines))
	}

	fields = appendEntries(fields, "Subscription warned", s.SubscriptionWarned)
	fields = appendEntries(fields, "Subscription removed", s.SubscriptionRemoved)

	if len(s.Dangerous) > 0 {
		lines := make([]string, 0, len(s.Dangerous))
		for _, d := range s.Dangerous {
			lines = append(lines, fmt.Sprintf("%s: %s", d.Name(), d.Reason))
		}
		fields = append(fields, listField("Dangerous cases", len(lines), lines))
	}

	return appendFailures(fields, s.Failures)
}

func weeklyFields(w *lifecycle.WeeklyStats) []*discordgo.MessageEmbedField {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Active", Value: fmt.Sprint(w.TotalActive), Inline: true},
		{Name: "Posted", Value: fmt.Sprint(w.Posted), Inline: true},
		{Name: "Missed", Value: fmt.Sprint(w.NotPosted), Inline: true},
		{Name: "On pause", Value: fmt.Sprint(w.Paused), Inline: true},
	}
	fields = appendEntries(fields, "Posted this week", w.Posters)
	fields = appendEntries(fields, "Missed this week", w.Missed)
	return appendFailures(fields, w.Failures)
}

func appendEntries(fields []*discordgo.MessageEmbedField, name string, entries []lifecycle.Entry) []*discordgo.MessageEmbedField {
	if len(entries) == 0 {
		return fields
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.Name())
	}
	return append(fields, listField(name, len(lines), lines))
}

func appendFailures(fields []*discordgo.MessageEmbedField, failures []lifecycle.StepResult) []*discordgo.MessageEmbedField {
	if len(failures) == 0 {
		return fields
	}
	lines := make([]string, 0, len(failures))
	for _, f := range failures {
		lines = append(lines, fmt.Sprintf("%d %s: %s", f.MemberID, f.Step, f.Error))
	}
	return append(fields, listField("Failed steps", len(lines), lines))
}

func listField(name string, count int, lines []string) *discordgo.MessageEmbedField {
	return &discordgo.MessageEmbedField{
		Name:  fmt.Sprintf("%s (%d)", name, count),
		Value: truncate(strings.Join(lines, "\n"), maxFieldValue),
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	const ellipsis = "\n…"
	cut := limit - len(ellipsis)
	// Back off to a rune boundary.
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + ellipsis
}
