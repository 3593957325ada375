package snspub

import (
	"fmt"
	"strings"
	"time"

	"github.com/frodopackets/DeathStrandsing/internal/domain"
)

const subjectDateFormat = "January 2, 2006"

var (
	heavyRule = strings.Repeat("=", 50)
	lightRule = strings.Repeat("-", 50)
)

func subjectFor(prefix string, t time.Time) string {
	return fmt.Sprintf("%s - %s", prefix, t.Format(subjectDateFormat))
}

func noNewsSubject(prefix string) string {
	return prefix + " - No Updates Today"
}

func renderPlainText(prefix, topic string, s domain.Summary) string {
	var b strings.Builder

	b.WriteString(subjectFor(prefix, s.GeneratedAt))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	b.WriteString(heavyRule)
	b.WriteString("\n\n")

	b.WriteString(s.Narrative)
	b.WriteString("\n")

	if len(s.KeyPoints) > 0 {
		b.WriteString("\nKEY POINTS\n")
		b.WriteString(lightRule)
		b.WriteString("\n")
		for _, point := range s.KeyPoints {
			fmt.Fprintf(&b, "- %s\n", point)
		}
	}

	if len(s.Sources) > 0 {
		b.WriteString("\nSOURCES\n")
		b.WriteString(lightRule)
		b.WriteString("\n")
		for i, src := range s.Sources {
			fmt.Fprintf(&b, "%d. %s - %s (%s)\n   %s\n",
				i+1, src.Title, src.Source, src.PublishedAt.Format("2006-01-02"), src.URL)
		}
	}

	b.WriteString("\n")
	b.WriteString(heavyRule)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Generated at %s by %s%s\n",
		s.GeneratedAt.Format(time.RFC3339), s.Model, degradedSuffix(s))

	return b.String()
}

func renderEmail(prefix, topic string, s domain.Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", subjectFor(prefix, s.GeneratedAt))
	fmt.Fprintf(&b, "**Topic:** %s\n\n", topic)

	b.WriteString(s.Narrative)
	b.WriteString("\n")

	if len(s.KeyPoints) > 0 {
		b.WriteString("\n## Key Points\n\n")
		for _, point := range s.KeyPoints {
			fmt.Fprintf(&b, "- %s\n", point)
		}
	}

	if len(s.Sources) > 0 {
		b.WriteString("\n## Sources\n\n")
		for i, src := range s.Sources {
			fmt.Fprintf(&b, "%d. [%s](%s) - %s (%s)\n",
				i+1, src.Title, src.URL, src.Source, src.PublishedAt.Format("2006-01-02"))
		}
	}

	fmt.Fprintf(&b, "\n_Generated at %s by %s%s_\n",
		s.GeneratedAt.Format(time.RFC3339), s.Model, degradedSuffix(s))

	return b.String()
}

func renderNoNewsPlain(prefix string, n domain.NoNewsNotice) string {
	var b strings.Builder

	b.WriteString(noNewsSubject(prefix))
	b.WriteString("\n")
	b.WriteString(heavyRule)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "No relevant %s news was found in the last %d hours.\n", n.Topic, n.WindowHours)
	b.WriteString("This is a routine notice; the agent ran successfully and will check again on schedule.\n\n")
	b.WriteString(heavyRule)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Generated at %s\n", n.GeneratedAt.Format(time.RFC3339))

	return b.String()
}

func renderNoNewsEmail(prefix string, n domain.NoNewsNotice) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", noNewsSubject(prefix))
	fmt.Fprintf(&b, "No relevant **%s** news was found in the last %d hours.\n\n", n.Topic, n.WindowHours)
	b.WriteString("This is a routine notice; the agent ran successfully and will check again on schedule.\n\n")
	fmt.Fprintf(&b, "_Generated at %s_\n", n.GeneratedAt.Format(time.RFC3339))

	return b.String()
}

func degradedSuffix(s domain.Summary) string {
	if s.Degraded {
		return " (degraded)"
	}
	return ""
}
