package analyzer

import (
	"regexp"
	"strings"
	"unicode"
)

// subjectPrefix is the boilerplate most notification e-mails carry in front of
// the actual role name.
const subjectPrefix = "New job offer: "

// summaryFallbackLen limits the summary when the body has no sentence
// boundaries at all.
const summaryFallbackLen = 500

// Posting is the structured form of a single job notification. It is produced
// once by Extract and never mutated afterwards.
type Posting struct {
	Title      string   `json:"title"`
	Company    string   `json:"company"`
	Location   string   `json:"location,omitempty"`
	Skills     []string `json:"skills"`
	Summary    string   `json:"description_summary"`
	RawContent string   `json:"raw_content"`
}

// skillVocabulary is the fixed, ordered reference list of technology terms
// matched against the notification text. Matching is word-boundary aware,
// unlike the classifier's substring containment.
var skillVocabulary = []string{
	"Python", "Java", "JavaScript", "React", "Angular", "Vue.js", "Node.js",
	"Flask", "Django", "Spring Boot", "Docker", "Kubernetes", "AWS", "Azure",
	"GCP", "SQL", "NoSQL", "MongoDB", "PostgreSQL", "MySQL", "Git", "CI/CD",
	"Machine Learning", "Deep Learning", "Data Science", "Big Data", "Spark",
	"Hadoop", "Agile", "Scrum", "DevOps", "Cloud", "REST API", "Microservices",
}

var (
	// Intro phrase lazily followed by a role noun on the same line; the
	// capture drops the intro. Longer role nouns come first so alternation
	// picks the full phrase.
	titleRe = regexp.MustCompile(`(?i)(?:position of|job offer|is hiring)[ :\-]*(.*?` +
		`(?:data scientist|project manager|developer|engineer|consultant|architect|specialist|expert|manager))`)

	// A boundary word terminates the title once a role noun was seen.
	titleBoundaryRe = regexp.MustCompile(`(?i)\s+(?:at|for|with)\b`)

	// Company runs start with a capital letter after "at" or "by". The
	// character class includes spaces and periods so multi-word names and
	// "Amazon.com" style names survive; the run is cut back to the first
	// sentence boundary afterwards.
	companyAtRe = regexp.MustCompile(`\b[aA]t\s+([A-Z][A-Za-z0-9 &.\-]+)`)
	companyByRe = regexp.MustCompile(`\b[bB]y\s+([A-Z][A-Za-z0-9 &.\-]+)`)

	skillRes = compileSkillPatterns()
)

func compileSkillPatterns() []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(skillVocabulary))
	for _, skill := range skillVocabulary {
		res = append(res, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(skill)+`\b`))
	}
	return res
}

// Extract derives a Posting from the subject and body of a notification
// e-mail. It is a pure function over arbitrary strings: absent or malformed
// input degrades to empty fields, it never fails.
func Extract(subject, body string) *Posting {
	text := subject + "\n" + body

	return &Posting{
		Title:      extractTitle(text, subject),
		Company:    extractCompany(text),
		Skills:     extractSkills(text),
		Summary:    summarize(body),
		RawContent: text,
	}
}

func extractTitle(text, subject string) string {
	loc := titleRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return strings.TrimSpace(strings.TrimPrefix(subject, subjectPrefix))
	}

	title := text[loc[2]:loc[3]]

	// The matched role noun may be followed by qualifiers; keep them up to
	// the first boundary word or end of line.
	rest := text[loc[1]:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	if b := titleBoundaryRe.FindStringIndex(rest); b != nil {
		rest = rest[:b[0]]
	}

	return strings.TrimSpace(title + rest)
}

func extractCompany(text string) string {
	if m := companyAtRe.FindStringSubmatch(text); m != nil {
		return trimCompanyRun(m[1])
	}
	if m := companyByRe.FindStringSubmatch(text); m != nil {
		return trimCompanyRun(m[1])
	}
	return ""
}

// trimCompanyRun cuts a captured name run back to the first sentence boundary
// and drops trailing punctuation.
func trimCompanyRun(run string) string {
	if i := strings.Index(run, ". "); i >= 0 {
		run = run[:i]
	}
	return strings.TrimRight(strings.TrimSpace(run), ".-&")
}

func extractSkills(text string) []string {
	skills := make([]string, 0)
	for i, re := range skillRes {
		if re.MatchString(text) {
			skills = append(skills, skillVocabulary[i])
		}
	}
	return skills
}

func summarize(body string) string {
	sentences := splitSentences(body)
	if len(sentences) == 0 {
		if len(body) > summaryFallbackLen {
			return body[:summaryFallbackLen]
		}
		return body
	}

	if len(sentences) > 3 {
		sentences = sentences[:3]
	}
	return strings.Join(sentences, " ")
}

// splitSentences cuts the text after '.', '!' or '?' followed by whitespace,
// keeping the punctuation with the sentence. A trailing fragment without
// terminal punctuation counts as a sentence too.
func splitSentences(text string) []string {
	var sentences []string
	start := 0

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			next := i + 1
			if next < len(text) && !unicode.IsSpace(rune(text[next])) {
				continue
			}
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				sentences = append(sentences, s)
			}
			start = next
		}
	}

	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
