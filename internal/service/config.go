package service

import (
	"os"

	"backoffice/internal/model"
)

// Config carries the settings the orchestrators used to pick up from implicit
// globals: the ledger currency every aggregate is stored in and the shop
// details printed on invoices.
type Config struct {
	LedgerCurrency string
	ShopName       string
	ShopAddress    string
	ShopPhone      string
}

// LoadConfig reads the shop configuration from the environment with
// development fallbacks.
func LoadConfig() Config {
	cfg := Config{
		LedgerCurrency: os.Getenv("LEDGER_CURRENCY"),
		ShopName:       os.Getenv("SHOP_NAME"),
		ShopAddress:    os.Getenv("SHOP_ADDRESS"),
		ShopPhone:      os.Getenv("SHOP_PHONE"),
	}
	if cfg.LedgerCurrency == "" {
		cfg.LedgerCurrency = model.CurrencyUZS
	}
	if cfg.ShopName == "" {
		cfg.ShopName = "Ulgurji savdo do'koni"
	}
	return cfg
}
