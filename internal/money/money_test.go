package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestToLedger(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		ledger   string
		rate     string
		want     string
		wantErr  error
	}{
		{name: "ledger currency passes through", amount: "100000", currency: "UZS", ledger: "UZS", rate: "0", want: "100000"},
		{name: "rate ignored for ledger currency", amount: "5000", currency: "UZS", ledger: "UZS", rate: "12000", want: "5000"},
		{name: "usd converted", amount: "10", currency: "USD", ledger: "UZS", rate: "12000", want: "120000"},
		{name: "fractional usd", amount: "1.50", currency: "USD", ledger: "UZS", rate: "12650", want: "18975"},
		{name: "zero rate rejected", amount: "10", currency: "USD", ledger: "UZS", rate: "0", wantErr: ErrInvalidRate},
		{name: "negative rate rejected", amount: "10", currency: "USD", ledger: "UZS", rate: "-1", wantErr: ErrInvalidRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToLedger(d(tt.amount), tt.currency, tt.ledger, d(tt.rate))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ToLedger() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ToLedger() unexpected error: %v", err)
			}
			if !got.Equal(d(tt.want)) {
				t.Errorf("ToLedger() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name    string
		weights []string
		total   string
		want    []string
	}{
		{
			name:    "proportional split",
			weights: []string{"100000", "120000"},
			total:   "110000",
			want:    []string{"50000", "60000"},
		},
		{
			name:    "last line absorbs residual",
			weights: []string{"1", "1", "1"},
			total:   "100",
			want:    []string{"33.33", "33.33", "33.34"},
		},
		{
			name:    "single line takes everything",
			weights: []string{"42"},
			total:   "500",
			want:    []string{"500"},
		},
		{
			name:    "zero weights yield zero shares",
			weights: []string{"0", "0"},
			total:   "900",
			want:    []string{"0", "0"},
		},
		{
			name:    "zero total",
			weights: []string{"300", "700"},
			total:   "0",
			want:    []string{"0", "0"},
		},
		{
			name:    "zero weight line gets nothing",
			weights: []string{"0", "200"},
			total:   "150",
			want:    []string{"0", "150"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weights := make([]decimal.Decimal, len(tt.weights))
			for i, w := range tt.weights {
				weights[i] = d(w)
			}

			got := Allocate(weights, d(tt.total))
			if len(got) != len(tt.want) {
				t.Fatalf("Allocate() returned %d shares, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if !got[i].Equal(d(tt.want[i])) {
					t.Errorf("share[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestAllocateConservation(t *testing.T) {
	cases := [][]string{
		{"33.33", "66.67", "0.01"},
		{"1", "2", "3", "4", "5", "6", "7"},
		{"999999.99", "0.01"},
	}
	totals := []string{"100", "123.45", "0.01", "7777.77"}

	for _, weightsRaw := range cases {
		weights := make([]decimal.Decimal, len(weightsRaw))
		for i, w := range weightsRaw {
			weights[i] = d(w)
		}
		for _, total := range totals {
			shares := Allocate(weights, d(total))
			sum := decimal.Zero
			for _, s := range shares {
				sum = sum.Add(s)
			}
			if !sum.Equal(Round(d(total))) {
				t.Errorf("weights %v total %s: shares sum to %s", weightsRaw, total, sum)
			}
		}
	}
}

func TestAllocateEmpty(t *testing.T) {
	if got := Allocate(nil, d("100")); len(got) != 0 {
		t.Errorf("Allocate(nil) = %v, want empty", got)
	}
}

func TestAllocateSharesStayNonNegative(t *testing.T) {
	// seven equal weights over 4 cents: naive rounding hands each early line
	// a cent and would push the residual line below zero
	weights := make([]decimal.Decimal, 7)
	for i := range weights {
		weights[i] = decimal.NewFromInt(1)
	}

	shares := Allocate(weights, d("0.04"))

	sum := decimal.Zero
	for i, share := range shares {
		if share.IsNegative() {
			t.Errorf("share %d = %s, must not be negative", i, share)
		}
		sum = sum.Add(share)
	}
	if !sum.Equal(d("0.04")) {
		t.Errorf("shares sum to %s, want 0.04", sum)
	}
}
