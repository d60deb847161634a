package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/muesli/termenv"
	"github.com/skillgate/skillgate/pkg/domain"
	"golang.org/x/term"
)

// ApprovalNotifier surfaces pending sensitive executions on the terminal.
// On a TTY the prompt is rendered as styled markdown; otherwise it degrades
// to a plain one-line notice so logs stay readable when output is piped.
type ApprovalNotifier struct {
	out    io.Writer
	isTTY  bool
	render func(string) (string, error)
}

// NewApprovalNotifier creates a notifier writing to stdout.
func NewApprovalNotifier() *ApprovalNotifier {
	return &ApprovalNotifier{
		out:    os.Stdout,
		isTTY:  term.IsTerminal(int(os.Stdout.Fd())),
		render: NewRenderer(),
	}
}

// NewApprovalNotifierTo creates a notifier writing to the given writer,
// treated as a non-TTY. Used by tests and non-interactive transports.
func NewApprovalNotifierTo(w io.Writer) *ApprovalNotifier {
	return &ApprovalNotifier{
		out:   w,
		isTTY: false,
	}
}

// Notify prints the approval prompt for one pending execution.
func (n *ApprovalNotifier) Notify(ctx context.Context, exec *domain.SkillExecution) error {
	if !n.isTTY || n.render == nil {
		_, err := fmt.Fprintf(n.out, "approval required: execution=%s skill=%s params=%s\n",
			exec.ID, exec.SkillID, compactParams(exec.Parameters))
		return err
	}

	md := n.buildMarkdown(exec)
	rendered, err := n.render(md)
	if err != nil {
		rendered = md
	}

	p := termenv.ColorProfile()
	header := termenv.String(" APPROVAL REQUIRED ").
		Foreground(p.Color("#0f172a")).
		Background(p.Color("#fbbf24")).
		Bold()

	fmt.Fprintln(n.out)
	fmt.Fprintln(n.out, header)
	_, err = fmt.Fprint(n.out, rendered)
	return err
}

func (n *ApprovalNotifier) buildMarkdown(exec *domain.SkillExecution) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** (`%s`) wants to run.\n\n", exec.SkillName, exec.SkillID)

	if len(exec.Parameters) > 0 {
		b.WriteString("| Parameter | Value |\n|---|---|\n")
		for _, k := range sortedKeys(exec.Parameters) {
			fmt.Fprintf(&b, "| %s | `%v` |\n", k, exec.Parameters[k])
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Approve with `skillgate approve %s` or deny with `skillgate deny %s`.\n",
		exec.ID, exec.ID)
	return b.String()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func compactParams(params map[string]any) string {
	if len(params) == 0 {
		return "{}"
	}
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%v", params)
	}
	return string(data)
}
