/*
Package giftcard implements the gift card ledger engine.

A card moves through a small state machine:

	Issued -> Accepted -> (partial redemptions) -> Exhausted
	                   \-> Expired

Issued cards must be accepted by the recipient, who proves ownership with the
phone number the card was issued to. Accepted cards can then be redeemed until
the balance reaches zero, at which point the card is deactivated. Expiry is
checked lazily whenever a card is accepted or redeemed; there is no sweeper.

Usage:

	svc := giftcard.NewService(repo, giftcard.Config{}, logger, nil)

	card, err := svc.Issue(ctx, giftcard.IssueRequest{
	    IssuerName:     "Alice",
	    RecipientName:  "Bob",
	    RecipientPhone: "+15551234567",
	    Balance:        5000,
	    ExpirationDays: 30,
	})

	card, err = svc.Accept(ctx, card.ID, "+15551234567")

	card, err = svc.Redeem(ctx, giftcard.RedeemRequest{
	    CardID:   card.ID,
	    Amount:   2000,
	    Merchant: "Corner Cafe",
	})

Redemption:

Every redemption runs inside one store transaction. The card row is read with
an exclusive lock, validated, debited and a ledger row appended before the
transaction commits. Concurrent redemptions of the same card queue on the row
lock, so each one sees the balance left by the previous one. Any failure, a
cancelled context included, rolls back both writes.

Error Handling:

All failures are *errors.DomainError values from giftledger/internal/errors:
validation failures (client-caused), not found, conflict on a duplicate id,
and store failures wrapping the underlying database error.
*/
package giftcard
