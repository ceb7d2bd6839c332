// Package digest renders matched, summarized papers into the plain-text
// document delivered by file or email. Rendering is deterministic: identical
// input (papers, options, date) yields byte-identical output.
package digest

import (
	"fmt"
	"strings"
	"time"

	"ArxivDigest/internal/domain"
)

const placeholderSummary = "Summary unavailable"

// Options controls rendering. Date is the run date shown in the header; it is
// an explicit input so renders can be reproduced.
type Options struct {
	Date            time.Time
	IncludeAbstract bool
}

// Render produces the digest body for the given papers.
func Render(papers []domain.SummarizedPaper, opts Options) string {
	var b strings.Builder

	divider := strings.Repeat("=", 80)
	rule := strings.Repeat("-", 80)

	fmt.Fprintf(&b, "arXiv Digest - %s\n", opts.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "%s\n", divider)
	fmt.Fprintf(&b, "%d %s matched your keywords.\n\n", len(papers), pluralize(len(papers)))

	for i, sp := range papers {
		paper := sp.Paper

		fmt.Fprintf(&b, "%d. %s\n", i+1, paper.Title)
		fmt.Fprintf(&b, "   Authors: %s\n", strings.Join(paper.Authors, ", "))
		fmt.Fprintf(&b, "   Published: %s\n", paper.PublishedAt.Format("2006-01-02"))
		fmt.Fprintf(&b, "   Link: %s\n", paper.URL)
		fmt.Fprintf(&b, "   Summary: %s\n", summaryLine(sp))

		if opts.IncludeAbstract {
			fmt.Fprintf(&b, "   Abstract: %s\n", paper.Abstract)
		}

		if i < len(papers)-1 {
			fmt.Fprintf(&b, "%s\n", rule)
		}
	}

	return b.String()
}

func summaryLine(sp domain.SummarizedPaper) string {
	if sp.Err != nil {
		return fmt.Sprintf("%s (%v)", placeholderSummary, sp.Err)
	}
	if strings.TrimSpace(sp.Summary) == "" {
		return placeholderSummary
	}
	return sp.Summary
}

func pluralize(n int) string {
	if n == 1 {
		return "paper"
	}
	return "papers"
}
