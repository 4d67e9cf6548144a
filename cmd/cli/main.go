package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	kafkaAdapter "github.com/michaelwybraniec/bankly/internal/adapter/kafka"
	postgresRepo "github.com/michaelwybraniec/bankly/internal/adapter/repository/postgres"
	"github.com/michaelwybraniec/bankly/internal/domain"
	"github.com/michaelwybraniec/bankly/internal/infrastructure/config"
	"github.com/michaelwybraniec/bankly/internal/infrastructure/postgres"
	"github.com/michaelwybraniec/bankly/internal/usecase"
)

var (
	baseURL string
	timeout time.Duration

	fromAccount   string
	toAccount     string
	amountMinor   int64
	transactionID string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bankly-cli",
		Short: "Bankly audit pipeline CLI tool",
		Long:  `A command line interface for exercising the Bankly transfer audit pipeline.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:4001", "Base URL of the audit service")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Event commands
	eventCmd := &cobra.Command{
		Use:   "event",
		Short: "Money-transferred event operations",
	}

	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Publish a money-transferred event to the broker",
		Run: func(cmd *cobra.Command, args []string) {
			sendEvent()
		},
	}
	sendCmd.Flags().StringVar(&fromAccount, "from", "acc-1", "Sender account ID")
	sendCmd.Flags().StringVar(&toAccount, "to", "acc-2", "Receiver account ID")
	sendCmd.Flags().Int64Var(&amountMinor, "amount", 200, "Amount in minor units")
	sendCmd.Flags().StringVar(&transactionID, "transaction-id", "", "Transaction ID (generated when empty)")

	e2eCmd := &cobra.Command{
		Use:   "e2e",
		Short: "Publish an event and wait for the audit record to land",
		Run: func(cmd *cobra.Command, args []string) {
			runE2E()
		},
	}
	e2eCmd.Flags().StringVar(&fromAccount, "from", "acc-1", "Sender account ID")
	e2eCmd.Flags().StringVar(&toAccount, "to", "acc-2", "Receiver account ID")
	e2eCmd.Flags().Int64Var(&amountMinor, "amount", 200, "Amount in minor units")

	eventCmd.AddCommand(sendCmd)
	eventCmd.AddCommand(e2eCmd)
	rootCmd.AddCommand(eventCmd)

	// Audit commands
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit record operations",
	}

	getCmd := &cobra.Command{
		Use:   "get [transactionID]",
		Short: "Fetch the audit record for a transaction",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getAuditRecord(args[0])
		},
	}

	cleanupCmd := &cobra.Command{
		Use:   "cleanup [transactionID]",
		Short: "Delete the audit record for a transaction from the store",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cleanupAuditRecord(args[0])
		},
	}

	auditCmd.AddCommand(getCmd)
	auditCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(auditCmd)

	// Account commands
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Ledger account operations",
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Create two funded test accounts",
		Run: func(cmd *cobra.Command, args []string) {
			seedAccounts()
		},
	}

	accountCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(accountCmd)

	// Transfer command
	transferCmd := &cobra.Command{
		Use:   "transfer",
		Short: "Execute a ledger transfer and emit its event",
		Run: func(cmd *cobra.Command, args []string) {
			executeTransfer()
		},
	}
	transferCmd.Flags().StringVar(&fromAccount, "from", "acc-1", "Sender account ID")
	transferCmd.Flags().StringVar(&toAccount, "to", "acc-2", "Receiver account ID")
	transferCmd.Flags().Int64Var(&amountMinor, "amount", 200, "Amount in minor units")
	rootCmd.AddCommand(transferCmd)

	// Health command
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check service readiness",
		Run: func(cmd *cobra.Command, args []string) {
			checkHealth()
		},
	}
	rootCmd.AddCommand(healthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func buildEvent() *domain.TransferEvent {
	id := transactionID
	if id == "" {
		id = ulid.Make().String()
	}
	return &domain.TransferEvent{
		FromAccountID: fromAccount,
		ToAccountID:   toAccount,
		Amount:        float64(amountMinor),
		TransactionID: id,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
}

func displayAmount(minor int64) string {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(100)).StringFixed(2)
}

func publish(event *domain.TransferEvent) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	publisher := kafkaAdapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer publisher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := publisher.Publish(ctx, event); err != nil {
		fmt.Printf("Failed to publish event: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Published event %s: %s -> %s, amount %s\n",
		event.TransactionID, event.FromAccountID, event.ToAccountID, displayAmount(amountMinor))
}

func sendEvent() {
	publish(buildEvent())
}

func runE2E() {
	event := buildEvent()
	publish(event)

	client := &http.Client{Timeout: timeout}
	deadline := time.Now().Add(30 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/api/v1/audit-events/" + event.TransactionID)
		if err == nil && resp.StatusCode == http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			fmt.Printf("E2E PASSED\nAudit record: %s\n", string(body))
			return
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(time.Second)
	}

	fmt.Printf("E2E FAILED: audit record %s never appeared\n", event.TransactionID)
	os.Exit(1)
}

func getAuditRecord(id string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + "/api/v1/audit-events/" + id)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Lookup FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var record map[string]any
	if err := json.Unmarshal(body, &record); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Transaction: %s\n", record["transactionId"])
	fmt.Printf("From: %s\n", record["fromAccountId"])
	fmt.Printf("To: %s\n", record["toAccountId"])
	if amount, ok := record["amount"].(float64); ok {
		fmt.Printf("Amount: %s\n", displayAmount(int64(amount)))
	}
	fmt.Printf("Ingested: %s\n", record["ingestedAt"])
}

func cleanupAuditRecord(id string) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, 2, 1)
	if err != nil {
		fmt.Printf("Failed to connect to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := postgresRepo.NewAuditRepository(pool)
	if err := repo.DeleteByTransactionID(ctx, id); err != nil {
		fmt.Printf("Cleanup failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Deleted audit record %s\n", id)
}

func seedAccounts() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, 2, 1)
	if err != nil {
		fmt.Printf("Failed to connect to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := postgresRepo.NewAccountRepository(pool)
	now := time.Now().UTC()

	accounts := []*domain.Account{
		{ID: "acc-1", OwnerName: "Alice", Balance: 100000, Currency: "USD",
			Status: domain.AccountStatusActive, CreatedAt: now, UpdatedAt: now},
		{ID: "acc-2", OwnerName: "Bob", Balance: 100000, Currency: "USD",
			Status: domain.AccountStatusActive, CreatedAt: now, UpdatedAt: now},
	}

	for _, account := range accounts {
		if err := repo.Create(ctx, account); err != nil {
			fmt.Printf("Failed to seed account %s: %v\n", account.ID, err)
			os.Exit(1)
		}
		fmt.Printf("Seeded account %s (%s, balance %s %s)\n",
			account.ID, account.OwnerName, displayAmount(account.Balance), account.Currency)
	}
}

func executeTransfer() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, 2, 1)
	if err != nil {
		fmt.Printf("Failed to connect to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	publisher := kafkaAdapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer publisher.Close()

	transferUC := usecase.NewTransferUseCase(
		postgresRepo.NewTxManager(pool),
		postgresRepo.NewAccountRepository(pool),
		postgresRepo.NewTransactionRepository(pool),
		publisher,
		zerolog.New(os.Stderr).With().Timestamp().Logger(),
	)

	transaction, err := transferUC.Execute(ctx, usecase.ExecuteTransferInput{
		FromAccountID: fromAccount,
		ToAccountID:   toAccount,
		Amount:        amountMinor,
	})
	if err != nil {
		if kind, ok := domain.RejectionKindOf(err); ok {
			fmt.Printf("Transfer rejected (%s): %v\n", kind, err)
		} else {
			fmt.Printf("Transfer failed: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Printf("Transfer %s completed: %s -> %s, amount %s %s\n",
		transaction.ID, transaction.FromAccountID, transaction.ToAccountID,
		displayAmount(transaction.Amount), transaction.Currency)
}

func checkHealth() {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + "/ready")
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Service NOT ready (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	fmt.Printf("Service ready\n%s\n", string(body))
}
