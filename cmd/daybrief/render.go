package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"daybrief/internal/brief"
)

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiDim    = "\x1b[2m"
)

var titleCaser = cases.Title(language.English)

// renderBundle prints a generated brief in a readable terminal layout.
func renderBundle(w io.Writer, bundle *brief.Bundle, colorize bool) {
	style := func(code, s string) string {
		if !colorize {
			return s
		}
		return code + s + ansiReset
	}

	fmt.Fprintf(w, "%s  %s\n",
		style(ansiBold, "Daily brief for "+bundle.UserID),
		style(statusColor(bundle.RunMetadata.Status), string(bundle.RunMetadata.Status)),
	)
	fmt.Fprintf(w, "%s\n", style(ansiDim, fmt.Sprintf("id %s, generated %s, window since %s",
		bundle.BriefID,
		bundle.GeneratedAt.Local().Format(time.RFC1123),
		bundle.Since.Local().Format(time.RFC1123),
	)))

	if bundle.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", bundle.Summary)
	}

	if len(bundle.TopHighlights) > 0 {
		fmt.Fprintf(w, "\n%s\n", style(ansiBold, "Top highlights"))
		renderItemTable(w, bundle.TopHighlights)
	}

	moduleNames := make([]string, 0, len(bundle.Modules))
	for name := range bundle.Modules {
		moduleNames = append(moduleNames, name)
	}
	sort.Strings(moduleNames)

	for _, name := range moduleNames {
		module := bundle.Modules[name]
		header := titleCaser.String(name)
		fmt.Fprintf(w, "\n%s  %s\n",
			style(ansiBold, header),
			style(moduleStatusColor(module.Status), string(module.Status)),
		)
		if module.Summary != "" {
			fmt.Fprintf(w, "%s\n", module.Summary)
		}
		if module.Status == brief.ModuleOK {
			fmt.Fprintf(w, "%s\n", style(ansiDim,
				fmt.Sprintf("%d new, %d updated, %d shown", module.NewCount, module.UpdatedCount, len(module.Items))))
		}
		if len(module.Items) > 0 {
			renderItemTable(w, module.Items)
		}
	}

	if len(bundle.Exploration) > 0 {
		fmt.Fprintf(w, "\n%s\n", style(ansiBold, "Worth a look"))
		for _, item := range bundle.Exploration {
			fmt.Fprintf(w, "  - [%s] %s\n", item.Source, item.Title)
		}
	}

	for _, warning := range bundle.RunMetadata.Warnings {
		fmt.Fprintf(w, "%s %s\n", style(ansiYellow, "warning:"), warning)
	}
	for _, errMsg := range bundle.RunMetadata.Errors {
		fmt.Fprintf(w, "%s %s\n", style(ansiRed, "error:"), errMsg)
	}
}

func renderItemTable(w io.Writer, items []*brief.Item) {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		novelty := ""
		if item.Novelty != nil {
			novelty = string(item.Novelty.Label)
		}
		rows = append(rows, []string{
			item.ItemRef,
			item.Source,
			novelty,
			formatScore(item.FinalScore()),
			truncate(item.Title, 60),
		})
	}
	renderTable(w, []string{"Ref", "Source", "Novelty", "Score", "Title"},
		rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft})
}

func statusColor(status brief.RunStatus) string {
	switch status {
	case brief.RunOK:
		return ansiGreen
	case brief.RunDegraded:
		return ansiYellow
	default:
		return ansiRed
	}
}

func moduleStatusColor(status brief.ModuleStatus) string {
	switch status {
	case brief.ModuleOK:
		return ansiGreen
	case brief.ModuleUnavailable:
		return ansiYellow
	default:
		return ansiRed
	}
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 3, 64)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
