package resume

import (
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"jobpilot.local/internal/analyzer"
)

// Profile holds the fixed candidate data rendered into every resume.
type Profile struct {
	Name       string   `mapstructure:"name" json:"name"`
	Email      string   `mapstructure:"email" json:"email"`
	Phone      string   `mapstructure:"phone" json:"phone"`
	LinkedIn   string   `mapstructure:"linkedin" json:"linkedin"`
	Summary    string   `mapstructure:"summary" json:"summary"`
	Skills     []string `mapstructure:"skills" json:"skills"`
	Experience string   `mapstructure:"experience" json:"experience"`
	Education  string   `mapstructure:"education" json:"education"`
}

// Generator renders tailored resume documents. The narrative sections are
// fixed template sentences with the posting's title and skills substituted in;
// there is no generative model behind them.
type Generator struct {
	logger *zap.Logger
}

func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{logger: logger}
}

// Generate writes a paginated PDF resume for the given posting to path.
func (g *Generator) Generate(profile *Profile, posting *analyzer.Posting, path string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Arial", "B", 15)
		pdf.CellFormat(0, 10, "Curriculum Vitae", "", 1, "C", false, 0, "")
		pdf.Ln(10)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AliasNbPages("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, profile.Name, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 5, "Email: "+profile.Email, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, "Phone: "+profile.Phone, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, "LinkedIn: "+profile.LinkedIn, "", 1, "C", false, 0, "")
	pdf.Ln(10)

	chapter(pdf, "Professional Summary", summaryParagraph(profile, posting))
	chapter(pdf, "Technical Skills", skillsParagraph(profile, posting))
	chapter(pdf, "Work Experience", profile.Experience)
	chapter(pdf, "Education", profile.Education)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("writing resume %s: %w", path, err)
	}

	g.logger.Info("resume generated", zap.String("path", path))
	return nil
}

func chapter(pdf *fpdf.Fpdf, title, body string) {
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, body, "", "L", false)
	pdf.Ln(5)
}

func summaryParagraph(profile *Profile, posting *analyzer.Posting) string {
	title := posting.Title
	if title == "" {
		title = "Developer"
	}

	return fmt.Sprintf("Seasoned developer with proven expertise in %s and a passion for innovation. "+
		"Able to turn complex requirements into robust, scalable software. "+
		"Driven by technical challenges and continuous learning, I am ready to make a significant contribution "+
		"to ambitious projects, particularly in dynamic environments such as the one described for the %s position.",
		strings.Join(profile.Skills, ", "), title)
}

func skillsParagraph(profile *Profile, posting *analyzer.Posting) string {
	wanted := strings.Join(posting.Skills, ", ")
	if wanted == "" {
		wanted = "technologies"
	}

	return fmt.Sprintf("Deep command of front-end (React, JavaScript, HTML, CSS) and back-end (Python, Node.js) technologies. "+
		"Experienced with databases (SQL, NoSQL) and cloud deployment (AWS, Docker). "+
		"Quick to pick up new tools and to solve hard problems creatively and efficiently. "+
		"I am particularly interested in the %s aspects mentioned in the offer.", wanted)
}
