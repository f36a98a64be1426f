package resume

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"jobpilot.local/internal/analyzer"
)

var testProfile = &Profile{
	Name:       "Jane Doe",
	Email:      "jane@example.com",
	Phone:      "+1 555 0100",
	LinkedIn:   "https://linkedin.com/in/janedoe",
	Skills:     []string{"React", "Node.js", "Python"},
	Experience: "Senior Developer at Tech Solutions (2022-present).",
	Education:  "MSc Computer Science (2019)",
}

func TestGenerateWritesDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.pdf")
	posting := &analyzer.Posting{
		Title:   "Full Stack Developer",
		Company: "TechCorp",
		Skills:  []string{"React", "Docker"},
	}

	g := NewGenerator(zap.NewNop())
	if err := g.Generate(testProfile, posting, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected resume file: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("expected non-empty resume file")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading resume: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Fatal("expected a PDF document")
	}
}

func TestGenerateToleratesEmptyPosting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.pdf")

	g := NewGenerator(zap.NewNop())
	if err := g.Generate(testProfile, &analyzer.Posting{}, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTemplateParagraphsSubstitutePosting(t *testing.T) {
	posting := &analyzer.Posting{
		Title:  "Platform Engineer",
		Skills: []string{"Kubernetes", "AWS"},
	}

	summary := summaryParagraph(testProfile, posting)
	if !strings.Contains(summary, "Platform Engineer") {
		t.Fatalf("expected posting title in summary, got %q", summary)
	}
	if !strings.Contains(summary, "React, Node.js, Python") {
		t.Fatalf("expected profile skills in summary, got %q", summary)
	}

	skills := skillsParagraph(testProfile, posting)
	if !strings.Contains(skills, "Kubernetes, AWS") {
		t.Fatalf("expected posting skills in skills paragraph, got %q", skills)
	}
}
