package analyzer

import "strings"

// Category is a job posting classification tag.
type Category string

const (
	CategoryWebDevelopment    Category = "web-development"
	CategoryDataScience       Category = "data-science"
	CategoryDevOps            Category = "devops"
	CategoryMobile            Category = "mobile"
	CategorySecurity          Category = "security"
	CategoryProjectManagement Category = "project-management"
	CategoryGeneral           Category = "general"
)

// categoryOrder fixes the iteration order for scoring. Ties are resolved in
// favor of the earliest category in this list, so the order is part of the
// contract and must not be derived from a map.
var categoryOrder = []Category{
	CategoryWebDevelopment,
	CategoryDataScience,
	CategoryDevOps,
	CategoryMobile,
	CategorySecurity,
	CategoryProjectManagement,
	CategoryGeneral,
}

// categoryKeywords holds the keyword sets scored against the lower-cased
// notification text. Matching is plain substring containment, not
// word-boundary aware like the extractor's skill matching.
var categoryKeywords = map[Category][]string{
	CategoryWebDevelopment:    {"web developer", "frontend", "backend", "full stack", "react", "angular", "vue", "javascript", "html", "css"},
	CategoryDataScience:       {"data scientist", "machine learning", "artificial intelligence", "deep learning", "python", "tensorflow", "pytorch"},
	CategoryDevOps:            {"devops", "infrastructure", "cloud", "aws", "azure", "docker", "kubernetes", "ci/cd"},
	CategoryMobile:            {"mobile developer", "android", "ios", "react native", "flutter", "swift", "kotlin"},
	CategorySecurity:          {"cybersecurity", "security engineer", "pentesting", "ethical hacking", "infosec"},
	CategoryProjectManagement: {"project manager", "scrum master", "product owner", "agile"},
	CategoryGeneral:           {},
}

// Categories returns the closed set of categories in declaration order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// Classify scores the notification text against every category's keyword set
// and returns the best-scoring category. When every score is zero the
// designated default is returned. Pure, total function.
func Classify(subject, body string) Category {
	counts := scores(subject, body)

	best := CategoryGeneral
	bestScore := -1
	for _, category := range categoryOrder {
		if counts[category] > bestScore {
			best = category
			bestScore = counts[category]
		}
	}

	if bestScore == 0 {
		return CategoryGeneral
	}
	return best
}

func scores(subject, body string) map[Category]int {
	content := strings.ToLower(subject + " " + body)

	counts := make(map[Category]int, len(categoryOrder))
	for _, category := range categoryOrder {
		score := 0
		for _, keyword := range categoryKeywords[category] {
			if strings.Contains(content, keyword) {
				score++
			}
		}
		counts[category] = score
	}
	return counts
}
