// Command invoicegen is the single-user invoice editor. It keeps one draft in
// a local JSON file, mutates it field by field, and exports the finished
// invoice as a PDF.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/qalinsara/rechnung/internal/draft"
	"github.com/qalinsara/rechnung/internal/models"
	"github.com/qalinsara/rechnung/internal/numbering"
	"github.com/qalinsara/rechnung/internal/pdf"
	"github.com/qalinsara/rechnung/internal/sanitize"
	"github.com/qalinsara/rechnung/internal/storage"
	"github.com/qalinsara/rechnung/internal/storage/filekv"
	"github.com/qalinsara/rechnung/pkg/logging"
)

func main() {
	godotenv.Load()
	logging.Setup()

	app := &cli.App{
		Name:  "invoicegen",
		Usage: "edit the current invoice draft and export it as PDF",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data",
				Usage:   "path to the draft data file",
				Value:   defaultDataPath(),
				EnvVars: []string{"INVOICEGEN_DATA"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "new",
				Usage: "discard the current draft and start a fresh one",
				Action: func(c *cli.Context) error {
					return withSession(c, func(ctx context.Context, s *draft.Session) error {
						inv, err := s.Clear(ctx)
						if err != nil {
							return err
						}
						fmt.Printf("Neuer Entwurf: Rechnung Nr. %s\n", inv.InvoiceNumber)
						return nil
					})
				},
			},
			{
				Name:  "show",
				Usage: "print the current draft with totals",
				Action: func(c *cli.Context) error {
					return withSession(c, func(ctx context.Context, s *draft.Session) error {
						printDraft(s)
						return nil
					})
				},
			},
			{
				Name:      "set",
				Usage:     "set a draft field, e.g. set customerName 'Familie Weber'",
				ArgsUsage: "<field> <value>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return cli.Exit("usage: set <field> <value>", 1)
					}
					return withSession(c, func(ctx context.Context, s *draft.Session) error {
						return s.UpdateField(ctx, c.Args().Get(0), c.Args().Get(1))
					})
				},
			},
			{
				Name:  "item",
				Usage: "manage line items",
				Subcommands: []*cli.Command{
					{
						Name:  "add",
						Usage: "append a blank line item",
						Action: func(c *cli.Context) error {
							return withSession(c, func(ctx context.Context, s *draft.Session) error {
								return s.AddItem(ctx)
							})
						},
					},
					{
						Name:      "set",
						Usage:     "set an item field, e.g. item set 0 quantity 24,5",
						ArgsUsage: "<index> <field> <value>",
						Action: func(c *cli.Context) error {
							if c.NArg() != 3 {
								return cli.Exit("usage: item set <index> <field> <value>", 1)
							}
							index, err := strconv.Atoi(c.Args().Get(0))
							if err != nil {
								return cli.Exit("index must be a number", 1)
							}
							return withSession(c, func(ctx context.Context, s *draft.Session) error {
								return s.UpdateItem(ctx, index, c.Args().Get(1), c.Args().Get(2))
							})
						},
					},
					{
						Name:      "rm",
						Usage:     "remove the item at index",
						ArgsUsage: "<index>",
						Action: func(c *cli.Context) error {
							if c.NArg() != 1 {
								return cli.Exit("usage: item rm <index>", 1)
							}
							index, err := strconv.Atoi(c.Args().Get(0))
							if err != nil {
								return cli.Exit("index must be a number", 1)
							}
							return withSession(c, func(ctx context.Context, s *draft.Session) error {
								return s.RemoveItem(ctx, index)
							})
						},
					},
				},
			},
			{
				Name:  "settings",
				Usage: "show or change stored settings",
				Subcommands: []*cli.Command{
					{
						Name:  "show",
						Usage: "print the stored settings",
						Action: func(c *cli.Context) error {
							kv, err := openKV(c)
							if err != nil {
								return err
							}
							settings, err := draft.LoadSettings(c.Context, kv)
							if err != nil {
								return err
							}
							printSettings(settings)
							return nil
						},
					},
					{
						Name:      "set",
						Usage:     "set a settings field, e.g. settings set taxId 21/815/12345",
						ArgsUsage: "<field> <value>",
						Action: func(c *cli.Context) error {
							if c.NArg() != 2 {
								return cli.Exit("usage: settings set <field> <value>", 1)
							}
							kv, err := openKV(c)
							if err != nil {
								return err
							}
							settings, err := draft.LoadSettings(c.Context, kv)
							if err != nil {
								return err
							}
							if err := setSettingsField(&settings, c.Args().Get(0), c.Args().Get(1)); err != nil {
								return err
							}
							return draft.SaveSettings(c.Context, kv, settings)
						},
					},
				},
			},
			{
				Name:  "pdf",
				Usage: "export the current draft as a PDF",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "output file (defaults to <invoiceNumber>.pdf)",
					},
					&cli.StringFlag{
						Name:    "logo",
						Usage:   "logo URL or file path",
						EnvVars: []string{"LOGO_URL"},
					},
				},
				Action: exportPDF,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func defaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "invoicegen.json"
	}
	return filepath.Join(home, ".invoicegen", "data.json")
}

func openKV(c *cli.Context) (*filekv.FileKV, error) {
	return filekv.New(c.String("data"))
}

// withSession loads (or starts) the draft, runs fn against it, and prints the
// resulting draft state.
func withSession(c *cli.Context, fn func(context.Context, *draft.Session) error) error {
	ctx := c.Context

	kv, err := openKV(c)
	if err != nil {
		return err
	}
	settings, err := draft.LoadSettings(ctx, kv)
	if err != nil {
		return err
	}

	session := draft.NewSession(kv, numbering.New(numbering.NewKVCounter(kv)), settings)
	if _, err := session.Load(ctx); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if _, err := session.CreateNew(ctx); err != nil {
			return err
		}
	}

	if err := fn(ctx, session); err != nil {
		return err
	}
	printDraft(session)
	return nil
}

func exportPDF(c *cli.Context) error {
	ctx := c.Context

	kv, err := openKV(c)
	if err != nil {
		return err
	}
	settings, err := draft.LoadSettings(ctx, kv)
	if err != nil {
		return err
	}

	session := draft.NewSession(kv, numbering.New(numbering.NewKVCounter(kv)), settings)
	inv, err := session.Load(ctx)
	if err != nil {
		return fmt.Errorf("no draft to export: %w", err)
	}

	renderer := pdf.NewRenderer(pdf.Company{
		Name:   getEnv("COMPANY_NAME", "Qalin Sara"),
		Street: os.Getenv("COMPANY_STREET"),
		City:   os.Getenv("COMPANY_CITY"),
		Phone:  os.Getenv("COMPANY_PHONE"),
	})
	logo := pdf.FetchLogo(ctx, c.String("logo"))

	data, err := renderer.Render(inv, settings, logo)
	if err != nil {
		return err
	}

	out := c.String("out")
	if out == "" {
		out = pdf.Filename(inv)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("PDF geschrieben: %s\n", out)
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func setSettingsField(s *models.Settings, field, value string) error {
	switch field {
	case "taxId":
		s.TaxID = value
	case "bankOwner":
		s.BankOwner = value
	case "bankName":
		s.BankName = value
	case "bankIban":
		s.BankIBAN = value
	case "bankBic":
		s.BankBIC = value
	case "defaultVatPercent":
		s.DefaultVATPercent = sanitize.Number(value)
	case "smallBusinessNote":
		s.SmallBusinessNote = value == "true" || value == "1"
	default:
		return fmt.Errorf("unknown settings field: %s", field)
	}
	return nil
}

func printDraft(s *draft.Session) {
	inv := s.Current()
	if inv == nil {
		fmt.Println("Kein Entwurf vorhanden.")
		return
	}
	totals := s.Totals()

	fmt.Printf("Rechnung Nr. %s\n", inv.InvoiceNumber)
	fmt.Printf("  Rechnungsdatum:  %s\n", inv.IssueDate)
	fmt.Printf("  Leistungsdatum:  %s\n", inv.ServiceDate)
	fmt.Printf("  Kunde:           %s\n", inv.CustomerName)
	if inv.CustomerAddress != "" {
		fmt.Printf("  Adresse:         %s\n", inv.CustomerAddress)
	}
	fmt.Println("  Positionen:")
	for i, item := range inv.Items {
		fmt.Printf("    [%d] %-30s %8.2f x %8.2f\n", i, item.Description, item.Quantity, item.UnitPrice)
	}
	fmt.Printf("  Zwischensumme:   %10.2f\n", totals.Subtotal)
	if totals.HasTax {
		fmt.Printf("  MwSt. (%s%%):     %10.2f\n", strconv.FormatFloat(inv.VATPercent, 'f', -1, 64), totals.Tax)
	}
	fmt.Printf("  Gesamtsumme:     %10.2f\n", totals.GrandTotal)
	if totals.HasDeposit {
		fmt.Printf("  Anzahlung:       %10.2f\n", totals.Deposit)
		fmt.Printf("  Restbetrag:      %10.2f\n", totals.Remainder)
	}
	if totals.Note != "" {
		fmt.Printf("  Hinweis: %s\n", totals.Note)
	}
}

func printSettings(s models.Settings) {
	fmt.Printf("taxId:             %s\n", s.TaxID)
	fmt.Printf("bankOwner:         %s\n", s.BankOwner)
	fmt.Printf("bankName:          %s\n", s.BankName)
	fmt.Printf("bankIban:          %s\n", s.BankIBAN)
	fmt.Printf("bankBic:           %s\n", s.BankBIC)
	fmt.Printf("defaultVatPercent: %g\n", s.DefaultVATPercent)
	fmt.Printf("smallBusinessNote: %t\n", s.SmallBusinessNote)
}
