// Command seed issues a demo gift card against the configured database and
// prints what a client needs to exercise the API with it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"giftledger/internal/config"
	"giftledger/internal/repositories"
	"giftledger/internal/services/giftcard"
	qr "giftledger/internal/services/qr_code"
	"giftledger/internal/utils"

	"go.uber.org/zap"
)

func main() {
	issuer := flag.String("issuer", "Demo Issuer", "issuer name")
	recipient := flag.String("recipient", "Demo Recipient", "recipient name")
	phone := flag.String("phone", "+15551234567", "recipient phone")
	balance := flag.Int64("balance", 5000, "balance in minor units")
	days := flag.Int("days", 30, "days until expiry")
	accept := flag.Bool("accept", false, "accept the card after issuing it")
	flag.Parse()

	config.LoadEnv()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zlog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	db, err := repositories.OpenDatabase(cfg.DatabaseURL, cfg.DB)
	if err != nil {
		zlog.Fatal("failed to open database", zap.Error(err))
	}
	if err := repositories.Migrate(db); err != nil {
		zlog.Fatal("failed to migrate database", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc := giftcard.NewService(repositories.NewGiftCardRepository(db), giftcard.Config{}, zlog, nil)
	card, err := svc.Issue(ctx, giftcard.IssueRequest{
		IssuerName:     *issuer,
		RecipientName:  *recipient,
		RecipientPhone: *phone,
		Balance:        *balance,
		ExpirationDays: *days,
	})
	if err != nil {
		zlog.Fatal("failed to issue gift card", zap.Error(err))
	}

	if *accept {
		if card, err = svc.Accept(ctx, card.ID, *phone); err != nil {
			zlog.Fatal("failed to accept gift card", zap.Error(err))
		}
	}

	fmt.Printf("card id:    %s\n", card.ID)
	fmt.Printf("balance:    %s\n", utils.FormatMoney(card.Balance))
	fmt.Printf("accepted:   %t\n", card.IsAccepted)
	fmt.Printf("qr payload: %s\n", qr.Payload(card.ID))

	if cfg.JWTSecret != "" {
		token, err := utils.GenerateIssuerToken(cfg.JWTSecret, *issuer, 24*time.Hour)
		if err != nil {
			zlog.Fatal("failed to sign issuer token", zap.Error(err))
		}
		fmt.Printf("token:      %s\n", token)
	}
}
