package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/Klingon-tech/btcsend/internal/sendform"
	"github.com/Klingon-tech/btcsend/internal/validation"
)

var (
	green     = color.New(color.FgGreen).SprintFunc()
	greenBold = color.New(color.FgGreen, color.Bold).SprintFunc()
	amber     = color.New(color.FgYellow).SprintFunc()
	amberBold = color.New(color.FgYellow, color.Bold).SprintFunc()
	red       = color.New(color.FgRed).SprintFunc()
	cyan      = color.New(color.FgCyan).SprintFunc()
	whiteBold = color.New(color.FgWhite, color.Bold).SprintFunc()
)

func setColor(enabled bool) {
	color.NoColor = !enabled
}

func printField(w io.Writer, label string, value interface{}) {
	fmt.Fprintf(w, "  %-12s %v\n", label+":", value)
}

// printErrors lists field errors in field order.
func printErrors(w io.Writer, errs validation.Errors) {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Fprintf(w, "  %s %s\n", red(field+":"), errs[field])
	}
}

func printPreview(w io.Writer, res *sendform.PreviewResult) {
	switch res.Outcome {
	case sendform.OutcomeNavigated:
		fmt.Fprintln(w, greenBold("Transaction ready for review"))
		if res.Event != nil && res.Event.State != nil {
			printField(w, "Recipient", res.Event.State.Recipient)
			printField(w, "Fee", fmt.Sprintf("%d sats", res.Event.State.Fee))
		}
		if res.Tx != nil {
			printField(w, "Size", fmt.Sprintf("%d vB", res.Tx.VSize))
			printField(w, "Signed", res.Tx.Signed)
			printField(w, "Hex", cyan(res.Tx.Hex))
		}
	case sendform.OutcomeAwaitingFeeAck:
		fmt.Fprintln(w, amberBold("High fee"))
		fmt.Fprintln(w, amber("  The fee is unusually high. Run 'btcsend ack-fee' with the same values to continue,"))
		fmt.Fprintln(w, amber("  or 'btcsend cancel-fee' to go back and edit it."))
	case sendform.OutcomeInvalid:
		fmt.Fprintln(w, red("Form has errors"))
		printErrors(w, res.Errors)
	case sendform.OutcomeAborted:
		fmt.Fprintln(w, red("No transaction could be generated"))
	case sendform.OutcomeUnsupportedWallet:
		fmt.Fprintln(w, amber("This wallet type cannot preview from the send form"))
	case sendform.OutcomeBusy:
		fmt.Fprintln(w, amber("Another preview is in progress, try again"))
	default:
		fmt.Fprintf(w, "Outcome: %s\n", res.Outcome)
	}
}
