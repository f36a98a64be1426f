package analyzer

import (
	"reflect"
	"strings"
	"testing"
)

const sampleSubject = "New job offer: Full Stack Developer at TechCorp"

const sampleBody = "Hello,\n\nWe are looking for a passionate Full Stack Developer to join our team at TechCorp. " +
	"You will work on exciting projects using React, Node.js and Python. " +
	"Experience with Docker and AWS is a plus. The position is based in Paris. " +
	"We offer a dynamic work environment and growth opportunities.\n\nBest regards,\nThe TechCorp recruiting team."

func TestExtractIsDeterministic(t *testing.T) {
	first := Extract(sampleSubject, sampleBody)
	second := Extract(sampleSubject, sampleBody)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical postings, got %+v and %+v", first, second)
	}
}

func TestExtractNeverFailsOnEmptyInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		subject string
		body    string
	}{
		{name: "both empty"},
		{name: "empty body", subject: "New job offer: Backend Engineer"},
		{name: "empty subject", body: "We are hiring."},
		{name: "garbage", subject: "\x00\xff", body: strings.Repeat("!", 1000)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			posting := Extract(tc.subject, tc.body)
			if posting == nil {
				t.Fatal("expected a posting, got nil")
			}
			if posting.Skills == nil {
				t.Fatal("expected non-nil skills slice")
			}
		})
	}
}

func TestExtractSamplePosting(t *testing.T) {
	posting := Extract(sampleSubject, sampleBody)

	if !strings.Contains(posting.Title, "Developer") {
		t.Fatalf("expected title to contain Developer, got %q", posting.Title)
	}
	if posting.Company != "TechCorp" {
		t.Fatalf("expected company TechCorp, got %q", posting.Company)
	}

	for _, want := range []string{"React", "Python", "Docker", "AWS", "Node.js"} {
		found := false
		for _, skill := range posting.Skills {
			if skill == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected skills to contain %s, got %v", want, posting.Skills)
		}
	}

	if posting.RawContent != sampleSubject+"\n"+sampleBody {
		t.Fatal("raw content must be subject and body joined by a newline")
	}
}

func TestExtractTitleStopsAtBoundaryWord(t *testing.T) {
	posting := Extract("", "We have an open position of Senior Backend Engineer at CloudNine for the platform team.")

	if strings.Contains(posting.Title, "at CloudNine") {
		t.Fatalf("title must stop at the boundary word, got %q", posting.Title)
	}
	if !strings.Contains(posting.Title, "Engineer") {
		t.Fatalf("expected role noun in title, got %q", posting.Title)
	}
}

func TestExtractTitleFallsBackToSubject(t *testing.T) {
	posting := Extract("New job offer: Chief Happiness Officer", "No recognizable role nouns here.")

	if posting.Title != "Chief Happiness Officer" {
		t.Fatalf("expected stripped subject as title, got %q", posting.Title)
	}
}

func TestExtractCompanyByPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "at pattern",
			body: "Join us at Globex\nGreat benefits.",
			want: "Globex",
		},
		{
			name: "by pattern",
			body: "This role is offered by Initech Solutions\nApply now.",
			want: "Initech Solutions",
		},
		{
			name: "no company",
			body: "no capitalized run after the markers",
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			posting := Extract("", tc.body)
			if posting.Company != tc.want {
				t.Fatalf("expected company %q, got %q", tc.want, posting.Company)
			}
		})
	}
}

func TestExtractSkillsAreWordBoundaryAware(t *testing.T) {
	posting := Extract("", "We use NoSQL stores exclusively.")

	for _, skill := range posting.Skills {
		if skill == "SQL" {
			t.Fatal("SQL must not match inside NoSQL")
		}
	}

	found := false
	for _, skill := range posting.Skills {
		if skill == "NoSQL" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected NoSQL in skills, got %v", posting.Skills)
	}
}

func TestSummaryTakesFirstThreeSentences(t *testing.T) {
	body := "First sentence. Second one! Third here? Fourth must not appear."
	posting := Extract("", body)

	want := "First sentence. Second one! Third here?"
	if posting.Summary != want {
		t.Fatalf("expected %q, got %q", want, posting.Summary)
	}
}

func TestSummaryFallsBackToPrefix(t *testing.T) {
	body := strings.Repeat("x", 800)
	got := summarize(body)

	// A single unterminated run still counts as one sentence.
	if got != body {
		t.Fatalf("expected the whole fragment as summary, got %d chars", len(got))
	}

	if s := summarize(""); s != "" {
		t.Fatalf("expected empty summary for empty body, got %q", s)
	}
}
