package publisher

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// DryRunPublisher prints what would be published without sending anything
type DryRunPublisher struct {
	out io.Writer
}

// NewDryRun creates a dry-run publisher writing to out
func NewDryRun(out io.Writer) *DryRunPublisher {
	return &DryRunPublisher{out: out}
}

// Name returns "dry-run"
func (d *DryRunPublisher) Name() string {
	return "dry-run"
}

// Publish prints the item
func (d *DryRunPublisher) Publish(ctx context.Context, item Item) (Result, error) {
	fmt.Fprintf(d.out, "--- Post: %s ---\n", item.Title)
	if len(item.Labels) > 0 {
		fmt.Fprintf(d.out, "Labels: %s\n", strings.Join(item.Labels, ", "))
	}
	fmt.Fprintln(d.out, item.HTML)
	fmt.Fprintf(d.out, "\n(Length: %d characters)\n\n", utf8.RuneCountInString(item.HTML))
	return Result{Target: d.Name()}, nil
}
