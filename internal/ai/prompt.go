package ai

import (
	_ "embed"
	"fmt"
	"strings"
)

var (
	//go:embed prompts/system.md
	systemPrompt string

	//go:embed prompts/batch.md
	batchTemplate string

	//go:embed prompts/analysis.md
	analysisTemplate string
)

const (
	maxPromptSkills     = 10
	maxPromptEducation  = 3
	maxPromptExperience = 3

	notSpecified        = "Not specified"
	contentNotAvailable = "Content not available"
)

// SystemPrompt is the recruiter persona sent with every request.
func SystemPrompt() string {
	return strings.TrimSpace(systemPrompt)
}

func buildBatchPrompt(jobExcerpt string, candidates []Excerpt) string {
	var builder strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&builder, "Candidate %d (%s):\n", i, c.Name)
		fmt.Fprintf(&builder, "Skills: %s\n", joinOr(c.Skills, ", ", notSpecified))
		fmt.Fprintf(&builder, "Education: %s\n", joinOr(c.Education, "; ", notSpecified))
		fmt.Fprintf(&builder, "Experience: %s\n", joinOr(c.Experience, "; ", notSpecified))
		fmt.Fprintf(&builder, "Resume Content: %s\n\n---\n", textOr(c.ResumeText, contentNotAvailable))
	}

	prompt := strings.ReplaceAll(batchTemplate, "{{JOB_DESCRIPTION}}", jobExcerpt)
	return strings.ReplaceAll(prompt, "{{CANDIDATES}}", builder.String())
}

func buildAnalysisPrompt(jobExcerpt string, name string, skills, education, experience []string, resume string) string {
	replacer := strings.NewReplacer(
		"{{JOB_DESCRIPTION}}", jobExcerpt,
		"{{NAME}}", name,
		"{{SKILLS}}", joinOr(skills, ", ", notSpecified),
		"{{EDUCATION}}", joinOr(education, "; ", notSpecified),
		"{{EXPERIENCE}}", joinOr(experience, "; ", notSpecified),
		"{{RESUME}}", textOr(resume, contentNotAvailable),
	)
	return replacer.Replace(analysisTemplate)
}

func firstN(list []string, n int) []string {
	if len(list) <= n {
		return list
	}
	return list[:n]
}

// joinOr joins the non-blank entries of list, or returns placeholder when none are left.
func joinOr(list []string, sep, placeholder string) string {
	parts := make([]string, 0, len(list))
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return placeholder
	}
	return strings.Join(parts, sep)
}

func textOr(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}
