// Command seed inserts a client, an issuer profile and a run of biweekly
// draft invoices for one principal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type options struct {
	principal  string
	clientName string
	company    string
	count      int
	start      int
	firstIssue string
	hours      string
	rate       string
	currency   string
}

func main() {
	var opts options
	flag.StringVar(&opts.principal, "principal", "", "Principal id that owns the seeded records (required)")
	flag.StringVar(&opts.clientName, "client", "Globex Corporation", "Client name")
	flag.StringVar(&opts.company, "company", "", "Issuer company name")
	flag.IntVar(&opts.count, "count", 5, "Number of invoices")
	flag.IntVar(&opts.start, "start", 174, "First invoice number")
	flag.StringVar(&opts.firstIssue, "first-issue", "2025-10-31", "Issue date of the first invoice (YYYY-MM-DD)")
	flag.StringVar(&opts.hours, "hours", "80", "Billed hours per invoice")
	flag.StringVar(&opts.rate, "rate", "75", "Hourly rate")
	flag.StringVar(&opts.currency, "currency", invoicing.DefaultCurrency, "ISO 4217 currency code")
	flag.Parse()

	log, err := logger.New(logger.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if opts.principal == "" {
		flag.Usage()
		log.Fatal("-principal is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()
	if db.Driver() == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}

	s := seeder{
		clients:  persistence.NewGormClientRepository(db.DB),
		invoices: persistence.NewGormInvoiceRepository(db.DB),
		profiles: persistence.NewGormIssuerProfileRepository(db.DB),
		log:      log,
		now:      time.Now,
	}
	if err := s.run(context.Background(), opts); err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}
}

type seeder struct {
	clients  invoicing.ClientRepository
	invoices invoicing.InvoiceRepository
	profiles invoicing.IssuerProfileRepository
	log      *zap.Logger
	now      func() time.Time
}

func (s seeder) run(ctx context.Context, opts options) error {
	first, err := time.Parse(time.DateOnly, opts.firstIssue)
	if err != nil {
		return fmt.Errorf("invalid -first-issue: %w", err)
	}
	hours, err := decimal.NewFromString(opts.hours)
	if err != nil {
		return fmt.Errorf("invalid -hours: %w", err)
	}
	rate, err := decimal.NewFromString(opts.rate)
	if err != nil {
		return fmt.Errorf("invalid -rate: %w", err)
	}
	now := s.now().UTC()

	client := &invoicing.Client{
		ID:        uuid.NewString(),
		OwnedBy:   opts.principal,
		Name:      opts.clientName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.clients.Save(ctx, client); err != nil {
		return fmt.Errorf("save client: %w", err)
	}

	if _, err := s.profiles.FindByPrincipal(ctx, opts.principal); err != nil {
		profile := &invoicing.IssuerProfile{
			PrincipalID:        opts.principal,
			CompanyName:        opts.company,
			InvoiceStartNumber: opts.start,
			DefaultCurrency:    opts.currency,
			UpdatedAt:          now,
		}
		if err := s.profiles.Save(ctx, profile); err != nil {
			return fmt.Errorf("save issuer profile: %w", err)
		}
	}

	for i := 0; i < opts.count; i++ {
		issued := first.AddDate(0, 0, 14*i)
		inv := &invoicing.Invoice{
			ID:        uuid.NewString(),
			OwnedBy:   opts.principal,
			ClientID:  client.ID,
			Number:    invoicing.SequentialNumber(opts.start, i),
			IssueDate: issued,
			DueDate:   issued,
			Items: []invoicing.LineItem{{
				Description: payPeriodDescription(issued),
				Quantity:    hours,
				UnitPrice:   rate,
			}},
			TaxRate:   decimal.Zero,
			Currency:  opts.currency,
			Status:    invoicing.StatusDraft,
			CreatedAt: now,
			UpdatedAt: now,
		}
		inv.ApplyTotals()
		if err := inv.Validate(); err != nil {
			return fmt.Errorf("invoice %s: %w", inv.Number, err)
		}
		if err := s.invoices.Save(ctx, inv); err != nil {
			return fmt.Errorf("save invoice %s: %w", inv.Number, err)
		}
		s.log.Info("Invoice created",
			zap.String("id", inv.ID),
			zap.String("number", inv.Number),
			zap.String("total", inv.Total.StringFixed(2)))
	}

	s.log.Info("Seeding complete",
		zap.String("principal", opts.principal),
		zap.String("client_id", client.ID),
		zap.Int("invoices", opts.count))
	return nil
}

// payPeriodDescription names the two ISO weeks that end on issued.
func payPeriodDescription(issued time.Time) string {
	year, second := issued.ISOWeek()
	_, first := issued.AddDate(0, 0, -7).ISOWeek()
	return fmt.Sprintf("%d Week %d & %d Salary", year, first, second)
}
