package common

import (
	"fmt"
	"io"
	"strings"
	"time"

	"luckypaw-payments-go/internal/models"
)

const (
	// Default separator widths
	DefaultWidth = 80
	WideWidth    = 100
)

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(w io.Writer, char string, width int) {
	fmt.Fprintln(w, strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(w io.Writer, title string, width int) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", width))
	fmt.Fprintln(w, title)
	PrintSeparator(w, "=", width)
}

// PrintFooter prints a formatted footer with message and separators
func PrintFooter(w io.Writer, message string, width int) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", width))
	fmt.Fprintln(w, message)
	fmt.Fprintln(w, strings.Repeat("=", width)+"\n")
}

// PrintBoxSeparator prints a box-drawing separator line (for sub-sections)
func PrintBoxSeparator(w io.Writer, width int) {
	fmt.Fprintln(w, "├"+strings.Repeat("─", width))
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// PrintSummary renders the profit/loss report, one box per customer
func PrintSummary(w io.Writer, s *models.Summary) {
	title := fmt.Sprintf("PROFIT / LOSS  %s .. %s", s.From.Format(time.DateOnly), s.To.Format(time.DateOnly))
	PrintHeader(w, title, DefaultWidth)

	for _, c := range s.Customers {
		fmt.Fprintf(w, "\n┌─ %s\n", c.Username)
		PrintBoxSeparator(w, 78)
		printSummaryLines(w, c)
	}

	PrintFooter(w, fmt.Sprintf("TOTAL: deposits %s  cashouts %s  net %s  margin %s%%",
		s.Totals.TotalDeposit.StringFixed(2),
		s.Totals.TotalCashout.StringFixed(2),
		s.Totals.Net.StringFixed(2),
		s.Totals.ProfitMargin.StringFixed(2)), DefaultWidth)
}

func printSummaryLines(w io.Writer, c models.CustomerSummary) {
	lines := [][2]string{
		{"Deposits", c.TotalDeposit.StringFixed(2)},
		{"Cashouts", c.TotalCashout.StringFixed(2)},
		{"Net", c.Net.StringFixed(2)},
		{"Margin %", c.ProfitMargin.StringFixed(2)},
	}
	for i, line := range lines {
		fmt.Fprintf(w, "%s %-10s: %14s\n", BoxPrefix(i == len(lines)-1), line[0], line[1])
	}
}

// PrintLimit renders a customer's rolling cashout window
func PrintLimit(w io.Writer, l *models.LimitStatus) {
	PrintHeader(w, "CASHOUT LIMIT: "+l.Username, DefaultWidth)
	fmt.Fprintf(w, "Limit:     %s USD\n", l.Limit.StringFixed(2))
	fmt.Fprintf(w, "Used:      %s USD\n", l.Used.StringFixed(2))
	fmt.Fprintf(w, "Remaining: %s USD\n", l.Remaining.StringFixed(2))
	if l.WindowResetsAt != nil {
		fmt.Fprintf(w, "Resets at: %s\n", l.WindowResetsAt.Local().Format(time.DateTime))
	} else {
		fmt.Fprintln(w, "Resets at: no open window")
	}
}

// PrintOrders renders the operator order list
func PrintOrders(w io.Writer, orders []models.Order) {
	PrintHeader(w, fmt.Sprintf("ORDERS (%d)", len(orders)), WideWidth)
	for i, o := range orders {
		flags := ""
		if o.PaidManually {
			flags += " manual"
		}
		if !o.Read {
			flags += " unread"
		}
		fmt.Fprintf(w, "%s %-24s %-16s %-14s %10s USD %-8s %s%s\n",
			BoxPrefix(i == len(orders)-1),
			formatOrderId(o.OrderId),
			o.Username,
			o.Game,
			o.Amount.StringFixed(2),
			o.Status,
			o.CreatedAt.Local().Format(time.DateTime),
			flags)
	}
}

func formatOrderId(id string) string {
	if len(id) > 24 {
		return id[:21] + "..."
	}
	return id
}
