package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/veridian-labs/veridian/internal/model"
	"github.com/veridian-labs/veridian/internal/service"
)

// Reviewer presents possible-match verdicts to a compliance analyst over a
// plain line-based prompt and collects their disposition.
type Reviewer struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewReviewer creates a reviewer with the given reader and writer, defaulting
// to stdin and stdout.
func NewReviewer(reader io.Reader, writer io.Writer) *Reviewer {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Reviewer{
		reader: bufio.NewReader(reader),
		writer: writer,
	}
}

// Review renders the verdict with its match evidence and prompts for a
// decision: [c]onfirm, [d]ismiss or [s]kip.
func (r *Reviewer) Review(ctx context.Context, verdict model.Verdict, result model.ScreeningResult) (service.ReviewDecision, error) {
	fmt.Fprintln(r.writer, TitleStyle.Render("Possible match requires review"))
	fmt.Fprintf(r.writer, "  Cluster:  %s\n", verdict.ClusterID)
	fmt.Fprintf(r.writer, "  Outcome:  %s (top score %.2f)\n",
		OutcomeStyle(verdict.Outcome).Render(string(verdict.Outcome)), verdict.TopScore)
	fmt.Fprintln(r.writer)
	fmt.Fprintln(r.writer, renderMatches(result))

	for {
		if err := ctx.Err(); err != nil {
			return service.ReviewSkip, err
		}

		fmt.Fprint(r.writer, "[c]onfirm match, [d]ismiss, [s]kip: ")
		line, err := r.reader.ReadString('\n')
		if err != nil {
			return service.ReviewSkip, fmt.Errorf("failed to read review input: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "c", "confirm":
			return service.ReviewConfirm, nil
		case "d", "dismiss":
			return service.ReviewDismiss, nil
		case "s", "skip", "":
			return service.ReviewSkip, nil
		default:
			fmt.Fprintln(r.writer, SubtleStyle.Render("Please answer c, d or s."))
		}
	}
}

// renderMatches formats ranked match evidence inside a bordered box.
func renderMatches(result model.ScreeningResult) string {
	if len(result.Matches) == 0 {
		return SubtleStyle.Render("No candidates above the floor threshold.")
	}

	var b strings.Builder
	for i, match := range result.Matches {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s  score=%.2f  [%s/%s]  fields=%s",
			i+1, match.Entry.Name, match.Score,
			match.Entry.Category, match.Entry.Source,
			strings.Join(match.MatchedFields, ","))
	}
	return BoxStyle.Render(b.String())
}
