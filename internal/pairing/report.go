package pairing

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Report prints the resolved pairs with their supporting frame counts,
// followed by every unpaired body. numbers maps featureIds to the short
// per-class numbers reviewers see in the labeling tool; it may be nil.
func (r *Result) Report(w io.Writer, numbers map[string]int) error {
	label := func(id string) string {
		if n, ok := numbers[id]; ok {
			return fmt.Sprintf("%s (#%d)", id, n)
		}
		return id
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "BODY\tHEAD\tFRAMES")
	fmt.Fprintln(tw, "----\t----\t------")
	for _, p := range r.Pairs {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", label(p.Body), label(p.Head), p.Support)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Unpaired) > 0 {
		fmt.Fprintln(w)
		for _, d := range r.Unpaired {
			fmt.Fprintf(w, "⚠️  body %s unpaired: %s\n", label(d.Body), d.Message)
		}
	}
	if len(r.FreeHeads) > 0 {
		fmt.Fprintf(w, "\nHeads without a body: %d\n", len(r.FreeHeads))
	}

	_, err := fmt.Fprintf(w, "\nThe number of ants detected: %d (%d bodies unpaired, strategy %s)\n",
		len(r.Pairs), len(r.Unpaired), r.Strategy)
	return err
}
