package gate

import (
	"context"
	"errors"
	"strings"
	"time"

	"facefortune/internal/types"
)

var (
	// ErrMissingID is returned when no report identifier is present.
	// Presentation is only reachable through the QR hand-off.
	ErrMissingID = errors.New("no report identifier present; results are reachable through their QR link only")

	// ErrExportExpired is returned when the download window has closed.
	// Viewing stays allowed; only export is refused.
	ErrExportExpired = errors.New("the download window for this report has closed")
)

// Defaults mirror the product behavior: a one second perceived-latency delay
// before the result renders, and a seven day download window.
const (
	DefaultMinDelay     = time.Second
	DefaultExportWindow = 7 * 24 * time.Hour
)

// ReportSource resolves identifiers back into report content. The durable
// store satisfies this.
type ReportSource interface {
	GetReport(ctx context.Context, id string) (types.Report, error)
}

// Renderer turns report markdown into display output. The concrete markdown
// engine is collaborator-owned.
type Renderer interface {
	Render(markdown string) (string, error)
}

// Exporter writes a rendered report to a destination. The PDF utility
// behind it is collaborator-owned.
type Exporter interface {
	Export(report types.Report, path string) error
}

// QRRenderer produces a scannable image for a share URL. Collaborator-owned;
// the gate only guarantees the URL hand-off.
type QRRenderer interface {
	RenderURL(url string) (string, error)
}

// Gate authorizes the retrieval and rendering of a report, and enforces the
// export eligibility window.
type Gate struct {
	store ReportSource

	// MinDelay is waited before resolving, to mask perceived latency. It is
	// not a correctness requirement.
	MinDelay time.Duration

	// ExportWindow bounds how long after creation a report may be exported.
	ExportWindow time.Duration

	// Now is injectable for expiry tests.
	Now func() time.Time
}

// New builds a gate with product defaults.
func New(store ReportSource) *Gate {
	return &Gate{
		store:        store,
		MinDelay:     DefaultMinDelay,
		ExportWindow: DefaultExportWindow,
		Now:          time.Now,
	}
}

// Resolve looks a report up by identifier after the minimum delay. A missing
// identifier or an unresolvable one is a hard failure; the caller redirects
// to the entry point.
func (g *Gate) Resolve(ctx context.Context, id string) (types.Report, error) {
	if strings.TrimSpace(id) == "" {
		return types.Report{}, ErrMissingID
	}

	if g.MinDelay > 0 {
		select {
		case <-time.After(g.MinDelay):
		case <-ctx.Done():
			return types.Report{}, ctx.Err()
		}
	}

	return g.store.GetReport(ctx, id)
}

// CanExport enforces the export eligibility window against the report's
// creation timestamp.
func (g *Gate) CanExport(r types.Report) error {
	now := time.Now()
	if g.Now != nil {
		now = g.Now()
	}
	window := g.ExportWindow
	if window <= 0 {
		window = DefaultExportWindow
	}
	if now.Sub(r.CreatedAt) > window {
		return ErrExportExpired
	}
	return nil
}

// ResultMarkdown assembles the displayed document: the three detail
// sections in order, separated by horizontal rules.
func ResultMarkdown(r types.Report) string {
	return strings.Join([]string{r.Mini.Detail1, r.Mini.Detail2, r.Mini.Detail3}, "\n\n---\n\n")
}

// CleanSummary strips straight and curly quotes from the summary line, the
// way the QR view displays it.
func CleanSummary(s string) string {
	return strings.NewReplacer(`"`, "", "“", "", "”", "").Replace(s)
}

// QRLink builds the share URL embedded in the QR code. The identifier is a
// URL path segment: unguessable but not secret.
func QRLink(base, id string) string {
	return strings.TrimRight(base, "/") + "/result/" + id
}
