package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"wyniki/pkg/models"
)

// ProgressDisplay prints one line per order and one per artifact
type ProgressDisplay struct {
	mu          sync.Mutex
	totalOrders int
	current     int
	saved       int
	failed      int
	bytes       int64
	startTime   time.Time
	isDebug     bool
}

// NewProgressDisplay creates a display for a crawl of totalOrders orders
func NewProgressDisplay(totalOrders int, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		totalOrders: totalOrders,
		startTime:   time.Now(),
		isDebug:     debug,
	}
}

// UpdateTotal sets the order count once enumeration has finished
func (p *ProgressDisplay) UpdateTotal(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.totalOrders = total
}

// ScanningPage reports a page of the order list
func (p *ProgressDisplay) ScanningPage(page, found int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if IsQuietMode() {
		return
	}
	fmt.Fprintf(Output(), "%s Found %d orders on page %d\n", Magenta("→"), found, page)
}

// StartOrder announces the order about to be processed
func (p *ProgressDisplay) StartOrder(index int, ref models.OrderRef) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = index
	if IsQuietMode() {
		return
	}
	line := fmt.Sprintf("\n%s %s Processing order...", Cyan(fmt.Sprintf("[%d/%d]", index, p.totalOrders)), p.bar())
	if p.isDebug {
		line += " " + Dim(string(ref))
	}
	fmt.Fprintln(Output(), line)
}

// Identified prints the identifier chosen for the current order
func (p *ProgressDisplay) Identified(id string) {
	if !chatty() {
		return
	}
	fmt.Fprintf(Output(), "Processing order: %s\n", id)
}

// Artifact prints the outcome of one download button
func (p *ProgressDisplay) Artifact(o models.DownloadOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if o.Saved() {
		p.saved++
		p.bytes += int64(o.Size)
		if !IsQuietMode() {
			line := fmt.Sprintf("  %s Saved %s: %s", Green("✓"), o.Kind, o.Filename)
			if p.isDebug {
				line += Dim(fmt.Sprintf(" • %s • %s", formatBytes(int64(o.Size)), formatDuration(o.Duration)))
			}
			fmt.Fprintln(Output(), line)
		}
		return
	}

	p.failed++
	if !IsQuietMode() {
		fmt.Fprintf(Output(), "  %s Failed to download %s %d: %s\n", Red("✗"), o.Kind, o.Index+1, o.Reason)
	}
}

// CompleteOrder prints the order-level warnings
func (p *ProgressDisplay) CompleteOrder(r models.OrderResult) {
	if IsQuietMode() {
		return
	}
	if r.Err != nil {
		fmt.Fprintf(Output(), "%s Error downloading files for order %s: %s\n", Red("✗"), r.Identifier, r.Reason)
		return
	}
	if r.SoftFailure() {
		fmt.Fprintf(Output(), "  %s No files downloaded for order %s\n", Yellow("⚠"), r.Identifier)
	}
}

// Complete prints the closing line of the crawl
func (p *ProgressDisplay) Complete(outputDir string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if IsQuietMode() {
		return
	}
	elapsed := time.Since(p.startTime)
	fmt.Fprintf(Output(), "\n%s Crawl completed! Processed %d orders into %s\n", Green("✓"), p.totalOrders, outputDir)
	fmt.Fprintf(Output(), "  %s %d files, %s in %s\n", Dim("•"), p.saved, formatBytes(p.bytes), formatDuration(elapsed))
	if p.failed > 0 {
		fmt.Fprintf(Output(), "  %s %d downloads failed\n", Dim("•"), p.failed)
	}
}

func (p *ProgressDisplay) bar() string {
	if p.totalOrders <= 0 {
		return ""
	}
	const width = 20
	filled := p.current * width / p.totalOrders
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("━", filled) + strings.Repeat("─", width-filled) + "]"
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

// formatBytes formats bytes in a human-readable way
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
