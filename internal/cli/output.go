package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/eshaffer321/energysplit/internal/domain/consumption"
	"github.com/eshaffer321/energysplit/internal/domain/grouper"
	"github.com/eshaffer321/energysplit/internal/domain/validator"
	"github.com/eshaffer321/energysplit/internal/infrastructure/config"
)

// PrintHeader prints the calculation header.
func PrintHeader(w io.Writer, result *consumption.CalculationResult, policy string) {
	fmt.Fprintf(w, "energysplit: calculation %s\n", result.ID)
	if info := result.CompanyInfo; info != nil {
		fmt.Fprintf(w, "Bill to: %s (%s)\n", info.Name, info.Type)
		if info.Administrator != nil {
			fmt.Fprintf(w, "Administrator: %s\n", info.Administrator.Name)
		}
	}
	fmt.Fprintf(w, "Month: %s | Shared counters: %s\n\n", result.Month, policy)
}

// PrintResult prints each category as a per-group table. Readings without a
// known group are listed last under "Ungrouped". Readings with a registry
// entry are shown under their company name.
func PrintResult(w io.Writer, result *consumption.CalculationResult, registries []consumption.OfficeRegistry, cfg *config.Config) {
	for _, block := range result.Categories {
		fmt.Fprintf(w, "%s | Bill: %.2f | Base: %s kWh | Shared counters: %s kWh\n",
			cfg.Label(string(block.Category)),
			block.Bill.TotalAmount,
			formatKwh(block.Total),
			formatKwh(block.SharedCounterTotal),
		)
		fmt.Fprintln(w, strings.Repeat("-", 60))

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Reading\tkWh\tShare %\tCost\t")

		buckets := grouper.Group(block.Readings, result.Groups)
		for _, b := range grouper.Ordered(buckets, result.Groups) {
			if len(b.Ordinary)+len(b.SharedCounters) == 0 {
				continue
			}
			fmt.Fprintf(tw, "[%s]\t%s\t\t\t\n", b.Name(), formatKwh(b.OrdinaryTotal()))
			printRows(tw, block.Category, b.Ordinary, registries)
			printRows(tw, block.Category, b.SharedCounters, registries)
		}

		var ungrouped []consumption.Reading
		for _, r := range block.Readings {
			if _, ok := buckets[r.GroupID]; !ok {
				ungrouped = append(ungrouped, r)
			}
		}
		if len(ungrouped) > 0 {
			fmt.Fprintln(tw, "[Ungrouped]\t\t\t\t")
			printRows(tw, block.Category, ungrouped, registries)
		}

		fmt.Fprintf(tw, "Total\t%s\t\t%.2f\t\n", formatKwh(block.Total), block.AllocatedTotal)
		_ = tw.Flush()
		fmt.Fprintln(w)
	}
}

func printRows(tw io.Writer, category consumption.Category, readings []consumption.Reading, registries []consumption.OfficeRegistry) {
	for _, r := range readings {
		fallback := r.Name
		if fallback == "" {
			fallback = r.ID
		}
		name := consumption.CompanyNameFor(registries, category, r.ID, fallback)
		if r.IsSharedCounter {
			name += " (shared)"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%.2f\t%.2f\t\n", name, formatKwh(r.Kwh), r.Percentage(), r.Cost())
	}
}

func formatKwh(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}

// PrintValidation lists categories whose costs do not add up to the bill.
func PrintValidation(w io.Writer, failures []*validator.AllocationValidation) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintln(w, "Warnings:")
	for _, v := range failures {
		fmt.Fprintf(w, "  - %s: %s\n", v.Category, v.Reason)
	}
	fmt.Fprintln(w)
}

// PrintJSON writes the result as indented JSON.
func PrintJSON(w io.Writer, result *consumption.CalculationResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
