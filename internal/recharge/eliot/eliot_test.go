package eliot

import (
	"testing"

	"github.com/mextic/rechargefleet/internal/domain"
)

func TestProductCode(t *testing.T) {
	cases := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{name: "resolved code passes through", code: "TEL050", wantErr: false},
		{name: "empty code is rejected", code: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := domain.Candidate{Plan: domain.RechargePlan{ProductCode: tc.code}}
			got, err := ProductCode(c)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ProductCode() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ProductCode() unexpected error: %v", err)
			}
			if got != tc.code {
				t.Fatalf("ProductCode() = %q, want %q", got, tc.code)
			}
		})
	}
}

func TestDefaultProductPlans(t *testing.T) {
	cases := []struct {
		amount int64
		want   ProductPlan
	}{
		{amount: 10, want: ProductPlan{ProductCode: "TEL010", Days: 7}},
		{amount: 50, want: ProductPlan{ProductCode: "TEL050", Days: 30}},
		{amount: 500, want: ProductPlan{ProductCode: "TEL500", Days: 60}},
	}

	for _, tc := range cases {
		got, ok := DefaultProductPlans[tc.amount]
		if !ok {
			t.Fatalf("DefaultProductPlans[%d] missing", tc.amount)
		}
		if got != tc.want {
			t.Fatalf("DefaultProductPlans[%d] = %+v, want %+v", tc.amount, got, tc.want)
		}
	}

	if _, ok := DefaultProductPlans[999]; ok {
		t.Fatalf("DefaultProductPlans[999] should be unmapped")
	}
}
