package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
	"github.com/trebuchet-org/portal-deployer/internal/domain/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// RecordRenderer prints a deployment record for humans or for scripts
type RecordRenderer struct {
	out    io.Writer
	format string
}

// NewRecordRenderer creates a new record renderer
func NewRecordRenderer(out io.Writer, format string) *RecordRenderer {
	if format == "" {
		format = FormatText
	}
	return &RecordRenderer{out: out, format: format}
}

// Render writes the record in the configured format
func (r *RecordRenderer) Render(record *models.DeploymentRecord) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	case FormatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(record); err != nil {
			return err
		}
		return enc.Close()
	case FormatText:
		return r.renderText(record)
	default:
		return fmt.Errorf("unsupported output format %q", r.format)
	}
}

func (r *RecordRenderer) renderText(record *models.DeploymentRecord) error {
	switch record.Operation {
	case models.OperationDeploy:
		fmt.Fprintln(r.out, FormatSuccess("Proxy deployed"))
	case models.OperationUpgrade:
		fmt.Fprintln(r.out, FormatSuccess("Proxy upgraded"))
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateRows = false
	t.Style().Options.SeparateHeader = false
	t.Style().Box = table.BoxStyle{PaddingRight: "   "}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, Colors: text.Colors{text.Faint}},
		{Number: 2, Align: text.AlignLeft},
	})

	label := color.New(color.FgCyan, color.Bold)
	t.AppendRow(table.Row{"Proxy", label.Sprint(record.ProxyAddress.Hex())})
	t.AppendRow(table.Row{"Implementation", color.New(color.FgYellow).Sprint(record.ImplementationAddress.Hex())})
	if record.PreviousImplementation != nil {
		t.AppendRow(table.Row{"Previous implementation", record.PreviousImplementation.Hex()})
	}
	if record.Contract != "" {
		t.AppendRow(table.Row{"Contract", record.Contract})
	}
	if record.Kind != "" {
		t.AppendRow(table.Row{"Kind", string(record.Kind)})
	}
	if record.ChainID != 0 {
		t.AppendRow(table.Row{"Chain ID", record.ChainID})
	}
	if record.TxHash != nil {
		t.AppendRow(table.Row{"Transaction", record.TxHash.Hex()})
	}
	if record.BlockNumber != 0 {
		t.AppendRow(table.Row{"Block", record.BlockNumber})
	}
	fmt.Fprintln(r.out, t.Render())

	if len(record.Verification) > 0 {
		r.renderVerification(record.Verification)
	}
	return nil
}

func (r *RecordRenderer) renderVerification(results []models.VerificationResult) {
	title := cases.Title(language.English)

	fmt.Fprintln(r.out, "\nVerification:")
	for _, result := range results {
		verifier := title.String(result.Verifier)
		if verifier == "" {
			verifier = "Verifier"
		}
		target := fmt.Sprintf("%s %s", result.Contract, result.Address.Hex())

		switch result.Status {
		case models.VerificationStatusVerified:
			color.New(color.FgGreen).Fprintf(r.out, "  %s: ✓ Verified %s", verifier, target)
			if result.URL != "" {
				fmt.Fprintf(r.out, " - %s", result.URL)
			}
		case models.VerificationStatusFailed:
			color.New(color.FgRed).Fprintf(r.out, "  %s: ✗ Failed %s", verifier, target)
			if result.Reason != "" {
				fmt.Fprintf(r.out, " - %s", result.Reason)
			}
		default:
			color.New(color.Faint).Fprintf(r.out, "  %s: skipped %s", verifier, target)
			if result.Reason != "" {
				fmt.Fprintf(r.out, " - %s", result.Reason)
			}
		}
		fmt.Fprintln(r.out)
	}

	if lo.ContainsBy(results, func(res models.VerificationResult) bool {
		return res.Status == models.VerificationStatusFailed
	}) {
		fmt.Fprintln(r.out, FormatWarning("Some sources were not verified, retry with forge verify-contract"))
	}
}

var _ Renderer[*models.DeploymentRecord] = (*RecordRenderer)(nil)
