// Package pipeline orchestrates the automated application flow: analyze the
// notification, register it in the ledger, generate a tailored resume,
// provision a demonstration repository and send the reply.
package pipeline

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"jobpilot.local/internal/analyzer"
	"jobpilot.local/internal/github"
	"jobpilot.local/internal/ledger"
	"jobpilot.local/internal/resume"
)

const (
	unknownPosition = "Unknown position"
	unknownCompany  = "Unknown company"
)

// ResumeGenerator renders a resume document to the given path.
type ResumeGenerator interface {
	Generate(profile *resume.Profile, posting *analyzer.Posting, path string) error
}

// ProjectCreator provisions a demonstration repository and returns its URL.
type ProjectCreator interface {
	CreateProject(details *github.ProjectDetails) (string, error)
}

// Sender dispatches the reply e-mail with attachments.
type Sender interface {
	Send(ctx context.Context, to, subject, body string, attachments []string) error
}

// Outcome aggregates the terminal result of one pipeline invocation.
type Outcome struct {
	JobID      string            `json:"job_id"`
	Category   analyzer.Category `json:"job_type"`
	Posting    *analyzer.Posting `json:"job_details"`
	ProjectURL string            `json:"github_project_url,omitempty"`
	EmailSent  bool              `json:"email_sent"`
}

// Pipeline processes inbound job notifications. Invocations are synchronous
// and independent; the ledger serializes its own writes but two concurrent
// Process calls are otherwise uncoordinated.
type Pipeline struct {
	ledger   *ledger.Ledger
	resumes  ResumeGenerator
	projects ProjectCreator
	mailer   Sender
	profile  *resume.Profile
	workDir  string
	logger   *zap.Logger

	now func() time.Time
}

func New(l *ledger.Ledger, resumes ResumeGenerator, projects ProjectCreator, mailer Sender, profile *resume.Profile, workDir string, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		ledger:   l,
		resumes:  resumes,
		projects: projects,
		mailer:   mailer,
		profile:  profile,
		workDir:  workDir,
		logger:   logger,
		now:      time.Now,
	}
}

// Process runs the full flow for one notification. Repository provisioning
// is the only soft-fail step; everything else aborts with an error. A panic
// anywhere is converted into an error so the caller never crashes.
func (p *Pipeline) Process(ctx context.Context, subject, body, sender string) (outcome *Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panicked", zap.Any("panic", r))
			outcome = nil
			err = fmt.Errorf("processing notification: %v", r)
		}
	}()

	p.logger.Info("notification received",
		zap.String("sender", sender),
		zap.String("subject", subject),
	)

	// Both analyses are pure and independent of each other.
	category := analyzer.Classify(subject, body)
	posting := analyzer.Extract(subject, body)

	position := posting.Title
	if position == "" {
		position = unknownPosition
	}
	company := posting.Company
	if company == "" {
		company = unknownCompany
	}

	jobID := p.newJobID(subject)
	outcome = &Outcome{JobID: jobID, Category: category, Posting: posting}

	details, err := postingDetails(posting)
	if err != nil {
		return nil, fmt.Errorf("encoding posting details: %w", err)
	}
	if _, err := p.ledger.Upsert(jobID, company, position, ledger.StatusReceived, details); err != nil {
		return nil, fmt.Errorf("registering application: %w", err)
	}

	cvPath := filepath.Join(p.workDir, fmt.Sprintf("cv_%s_%s.pdf", underscored(p.profile.Name), underscored(company)))
	if err := p.resumes.Generate(p.profile, posting, cvPath); err != nil {
		// Without a resume there is nothing to send; the ledger keeps
		// the received/processing status.
		return nil, fmt.Errorf("generating resume: %w", err)
	}
	defer os.Remove(cvPath)

	p.logger.Info("resume generated", zap.String("path", cvPath))

	projectURL, err := p.projects.CreateProject(&github.ProjectDetails{
		Name:        fmt.Sprintf("Project_%s_%s", underscored(position), underscored(company)),
		Description: fmt.Sprintf("Demonstration project for the %s position at %s.", position, company),
	})
	if err != nil {
		// Soft fail: the reply still goes out, just without a project link.
		p.logger.Warn("repository provisioning failed", zap.Error(err))
	} else {
		outcome.ProjectURL = projectURL
	}

	status := ledger.StatusSent
	if err := p.mailer.Send(ctx, sender, replySubject(position, company), p.replyBody(position, company, outcome.ProjectURL), []string{cvPath}); err != nil {
		p.logger.Error("sending reply failed", zap.String("to", sender), zap.Error(err))
		status = ledger.StatusFailedToSend
	} else {
		outcome.EmailSent = true
	}

	if _, err := p.ledger.Upsert(jobID, company, position, status, map[string]any{
		"github_url": outcome.ProjectURL,
		"cv_file":    cvPath,
	}); err != nil {
		return nil, fmt.Errorf("recording outcome: %w", err)
	}

	p.logger.Info("notification processed",
		zap.String("job_id", jobID),
		zap.String("category", string(category)),
		zap.String("status", status),
		zap.Bool("email_sent", outcome.EmailSent),
	)
	return outcome, nil
}

// newJobID builds an identifier from the current timestamp and a small hash
// of the subject. Two identical subjects in the same second differ only by
// hash collision risk; the scheme is a known, accepted weakness.
func (p *Pipeline) newJobID(subject string) string {
	h := fnv.New32a()
	h.Write([]byte(subject))
	return fmt.Sprintf("app_%s_%04d", p.now().Format("20060102150405"), h.Sum32()%10000)
}

// postingDetails flattens the posting into the ledger's details mapping.
func postingDetails(posting *analyzer.Posting) (map[string]any, error) {
	details := make(map[string]any)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &details,
		TagName: "json",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(posting); err != nil {
		return nil, err
	}
	return details, nil
}

func replySubject(position, company string) string {
	return fmt.Sprintf("Application for the %s position at %s", position, company)
}

func (p *Pipeline) replyBody(position, company, projectURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello,\n\nThank you for the opportunity to apply for the %s position at %s.\n\n", position, company)
	b.WriteString("Please find attached my resume tailored for this role.")
	if projectURL != "" {
		fmt.Fprintf(&b, " You can also review a relevant project on GitHub: %s", projectURL)
	}
	fmt.Fprintf(&b, "\n\nI am very excited about the prospect of discussing this opportunity.\n\nBest regards,\n%s", p.profile.Name)
	return b.String()
}

func underscored(s string) string {
	return strings.ReplaceAll(s, " ", "_")
}
