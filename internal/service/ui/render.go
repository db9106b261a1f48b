package ui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/saxil/mareen/internal/core"
	"github.com/saxil/mareen/internal/service/embedcache"
	"github.com/saxil/mareen/internal/service/guard"
	"github.com/saxil/mareen/internal/service/retrieval"
)

const (
	timeLayout   = "2006-01-02 15:04:05"
	dateLayout   = "2006-01-02"
	snippetRunes = 120
)

func Title(s string) string {
	return TitleStyle.Render(s) + "\n"
}

func Label(name, value string) string {
	return fmt.Sprintf("%s  ›  %s\n", LabelStyle.Render(name), value)
}

func Success(msg string) string {
	return OKStyle.Render("✓ "+msg) + "\n"
}

func Warning(msg string) string {
	return WarnStyle.Render("! "+msg) + "\n"
}

func Error(err error) string {
	return ErrorStyle.Render("Error: "+err.Error()) + "\n"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func RenderStats(st core.Stats) string {
	var b strings.Builder
	b.WriteString(Title("Memory"))
	b.WriteString(Label("Sessions", fmt.Sprint(st.TotalSessions)))
	b.WriteString(Label("Messages", fmt.Sprint(st.TotalMessages)))

	speakers := make([]string, 0, len(st.BySpeaker))
	for s := range st.BySpeaker {
		speakers = append(speakers, string(s))
	}
	slices.Sort(speakers)
	for _, s := range speakers {
		b.WriteString(Label("  "+s, fmt.Sprint(st.BySpeaker[core.Speaker(s)])))
	}

	b.WriteString(Label("Avg session length", fmt.Sprintf("%.2f", st.AverageSessionLength)))
	if st.DatabasePath != "" {
		b.WriteString(Label("Database", st.DatabasePath))
	}
	return b.String()
}

func RenderSessions(sessions []core.Session) string {
	if len(sessions) == 0 {
		return DescStyle.Render("No sessions recorded yet.") + "\n"
	}

	var b strings.Builder
	b.WriteString(Title(fmt.Sprintf("Sessions (%d)", len(sessions))))
	for _, s := range sessions {
		b.WriteString(fmt.Sprintf("%s  %s  %s\n",
			UsageStyle.Render(s.ID),
			s.StartTime.Local().Format(timeLayout),
			DescStyle.Render(sessionSummary(s)),
		))
	}
	return b.String()
}

func sessionSummary(s core.Session) string {
	if s.Open() {
		return "open"
	}
	return fmt.Sprintf("%d messages", s.MessageCount)
}

func RenderMessages(s core.Session, msgs []core.Message) string {
	var b strings.Builder
	b.WriteString(Title("Session " + s.ID))
	b.WriteString(Label("Started", s.StartTime.Local().Format(timeLayout)))
	if s.EndTime != nil {
		b.WriteString(Label("Ended", s.EndTime.Local().Format(timeLayout)))
	} else {
		b.WriteString(Label("Ended", "still open"))
	}
	b.WriteString(Label("Messages", fmt.Sprint(len(msgs))))
	b.WriteString("\n")

	for _, m := range msgs {
		b.WriteString(RenderMessage(m))
	}
	return b.String()
}

func RenderMessage(m core.Message) string {
	line := fmt.Sprintf("%s %s %s",
		DescStyle.Render("["+m.Timestamp.Local().Format("15:04:05")+"]"),
		SpeakerStyle(m.Speaker).Render(string(m.Speaker)+":"),
		m.Text,
	)
	if m.ResponseTime != nil {
		line += " " + DescStyle.Render(fmt.Sprintf("(%.2fs)", m.ResponseTime.Seconds()))
	}
	return line + "\n"
}

func RenderSearch(query string, results []core.SearchResult) string {
	if len(results) == 0 {
		return DescStyle.Render(fmt.Sprintf("No messages matching %q.", query)) + "\n"
	}

	var b strings.Builder
	b.WriteString(Title(fmt.Sprintf("%d matches for %q", len(results), query)))
	for _, r := range results {
		b.WriteString(fmt.Sprintf("%s  %s  %s %s\n",
			r.Timestamp.Local().Format(timeLayout),
			DescStyle.Render(r.SessionID),
			SpeakerStyle(r.Speaker).Render(string(r.Speaker)+":"),
			snippet(r.Text),
		))
	}
	return b.String()
}

func RenderMemories(mems []core.ScoredMemory) string {
	if len(mems) == 0 {
		return DescStyle.Render("Nothing relevant in memory.") + "\n"
	}

	var b strings.Builder
	for i, m := range mems {
		b.WriteString(fmt.Sprintf("%d. [%s] %s %s\n", i+1,
			m.Message.Timestamp.Local().Format(dateLayout),
			SpeakerStyle(m.Message.Speaker).Render(string(m.Message.Speaker)+":"),
			snippet(m.Message.Text),
		))
		b.WriteString(DescStyle.Render(fmt.Sprintf("   score %.3f  similarity %.3f  recency %.3f",
			m.FinalScore, m.Similarity, m.Recency)) + "\n")
	}
	return b.String()
}

func RenderCacheStats(st embedcache.Stats) string {
	provider := st.Provider
	if provider == "" {
		provider = "none"
	}

	var b strings.Builder
	b.WriteString(Title("Embedding cache"))
	b.WriteString(Label("Provider", provider))
	b.WriteString(Label("Available", yesNo(st.Available)))
	b.WriteString(Label("Entries", fmt.Sprint(st.Entries)))
	b.WriteString(Label("Persistent", yesNo(st.Persistent)))
	return b.String()
}

func RenderRetrievalStats(st retrieval.Stats) string {
	var b strings.Builder
	b.WriteString(Title("Retrieval"))
	b.WriteString(Label("Embeddings", yesNo(st.EmbeddingsAvailable)))
	b.WriteString(Label("Candidates", fmt.Sprint(st.Candidates)))
	b.WriteString(Label("Window", fmt.Sprintf("%d days", st.WindowDays)))
	return b.String()
}

func RenderGuardStats(st guard.Stats) string {
	integrity := OKStyle.Render("verified")
	if !st.IntegrityVerified {
		integrity = WarnStyle.Render("changed on disk")
	}

	var b strings.Builder
	b.WriteString(Title("Identity"))
	b.WriteString(Label("File", st.IdentityFile))
	b.WriteString(Label("Loaded", yesNo(st.Loaded)))
	b.WriteString(Label("Length", fmt.Sprintf("%d bytes", st.Length)))
	b.WriteString(Label("Hash", st.Hash))
	b.WriteString(Label("Patterns", fmt.Sprint(st.Patterns)))
	b.WriteString(Label("Integrity", integrity))
	return b.String()
}

func RenderDuration(d time.Duration) string {
	return DescStyle.Render(fmt.Sprintf("(%.2fs)", d.Seconds()))
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= snippetRunes {
		return text
	}
	return string(r[:snippetRunes]) + "..."
}
