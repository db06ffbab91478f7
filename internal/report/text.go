package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/teemow/inboxtally/internal/classify"
)

// BarWidth is the length of a bar holding every message.
const BarWidth = 40

// WriteText renders a proportional bar per non-empty category with its count
// and share of the total.
func WriteText(w io.Writer, tally classify.Tally) error {
	total := tally.Total()
	if total == 0 {
		_, err := fmt.Fprintln(w, "No messages classified.")
		return err
	}

	labelWidth := 0
	for _, c := range classify.Categories {
		if tally.Count(c) > 0 && len(c) > labelWidth {
			labelWidth = len(c)
		}
	}

	for _, c := range classify.Categories {
		n := tally.Count(c)
		if n == 0 {
			continue
		}
		share := float64(n) / float64(total)
		bar := int(math.Round(share * BarWidth))
		if bar == 0 {
			bar = 1
		}
		if _, err := fmt.Fprintf(w, "%-*s  %-*s  %d (%.1f%%)\n",
			labelWidth, c,
			BarWidth, strings.Repeat("█", bar),
			n, share*100,
		); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "%-*s  %d messages\n", labelWidth, "Total", total)
	return err
}
