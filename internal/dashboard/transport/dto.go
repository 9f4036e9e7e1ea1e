// Package transport defines the dashboard summary response shape.
package transport

type PayerRisk struct {
	Payer        string  `json:"payer"`
	AvgRiskScore float64 `json:"avgRiskScore"`
	ClaimCount   int64   `json:"claimCount"`
}

type SummaryResponse struct {
	DenialsPrevented      int64      `json:"denialsPrevented"`
	ClaimsAtRisk          int64      `json:"claimsAtRisk"`
	AvgARDays             float64    `json:"avgArDays"`
	TopPayerRisk          *PayerRisk `json:"topPayerRisk"`
	RevenueProtectedCents int64      `json:"revenueProtectedCents"`
	TotalClaims           int64      `json:"totalClaims"`
	PendingClaims         int64      `json:"pendingClaims"`
}
