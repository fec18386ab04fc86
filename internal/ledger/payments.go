package ledger

import (
	"fmt"
	"time"

	"github.com/earnspherex/earnsphere-golang/internal/models"
	"github.com/google/uuid"
)

//
// --- Coin Purchases ---
//

// CoinPackages is the fixed purchase catalogue. The gateway charges the
// dollar price; this service only sees the confirmed result.
var CoinPackages = []models.CoinPackage{
	{Coins: 10, PriceUSD: 1},
	{Coins: 150, PriceUSD: 10},
	{Coins: 500, PriceUSD: 20},
	{Coins: 1000, PriceUSD: 35},
}

func packageByCoins(coins int64) (models.CoinPackage, bool) {
	for _, p := range CoinPackages {
		if p.Coins == coins {
			return p, true
		}
	}
	return models.CoinPackage{}, false
}

// PurchaseCoins credits a buyer with a purchased package and records the
// payment receipt, in one transaction. gatewayRef is the opaque reference
// returned by the external payment gateway after capture; we do not talk
// to the gateway ourselves.
func (s *Service) PurchaseCoins(actor Actor, coins int64, gatewayRef string) (*models.Payment, error) {
	if actor.Role != models.RoleBuyer {
		return nil, fmt.Errorf("%w: only buyers purchase coins", ErrForbidden)
	}
	pkg, ok := packageByCoins(coins)
	if !ok {
		return nil, fmt.Errorf("%w: unknown coin package %d", ErrValidation, coins)
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	transactionID := uuid.NewString()
	notes := fmt.Sprintf("Purchase of %d coins (receipt %s)", pkg.Coins, transactionID)
	if err := s.credit(tx, actor.ID, pkg.Coins, "purchase", notes); err != nil {
		return nil, err
	}

	now := time.Now()
	res, err := tx.Exec(`
		INSERT INTO payments
		(user_id, coins, amount_usd, transaction_id, gateway_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		actor.ID, pkg.Coins, pkg.PriceUSD, transactionID, gatewayRef, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	paymentID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &models.Payment{
		ID:            paymentID,
		UserID:        actor.ID,
		Coins:         pkg.Coins,
		AmountUSD:     pkg.PriceUSD,
		TransactionID: transactionID,
		GatewayRef:    gatewayRef,
		CreatedAt:     now,
	}, nil
}
