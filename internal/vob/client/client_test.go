package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rcm_backend/platform/apperr"
	"rcm_backend/platform/logger"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c := New(server.URL, "key", "secret", 55*time.Minute, logger.New("test"))
	return c, server
}

func authOK(w http.ResponseWriter, token string) {
	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

func TestVerify_NormalizesResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth", func(w http.ResponseWriter, r *http.Request) {
		authOK(w, "tok-1")
	})
	mux.HandleFunc("/api/vobs", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("authorization header = %q", got)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["dob"] != "1990-04-12" {
			t.Errorf("dob = %q, want 1990-04-12", body["dob"])
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id":                "vob-42",
			"status":            "verified",
			"payer":             "Aetna",
			"planType":          "PPO",
			"copayCents":        2500,
			"priorAuthRequired": true,
			"networkStatus":     "in_network",
			"policyStatus":      "active",
			"effectiveDate":     "2026-01-01",
		})
	})

	c, _ := newTestClient(t, mux)

	result, err := c.Verify(context.Background(), VerifyParams{
		FirstName:   "Jane",
		LastName:    "Doe",
		DateOfBirth: time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC),
		MemberID:    "W123",
		PayerID:     "60054",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.UpstreamID != "vob-42" {
		t.Errorf("upstreamID = %q", result.UpstreamID)
	}
	if result.Status != "verified" {
		t.Errorf("status = %q", result.Status)
	}
	if result.CopayCents == nil || *result.CopayCents != 2500 {
		t.Errorf("copayCents = %v", result.CopayCents)
	}
	if !result.PriorAuthRequired {
		t.Error("expected priorAuthRequired")
	}
	if result.EffectiveDate == nil || result.EffectiveDate.Format("2006-01-02") != "2026-01-01" {
		t.Errorf("effectiveDate = %v", result.EffectiveDate)
	}
	if len(result.RawPayload) == 0 {
		t.Error("expected raw payload to be preserved")
	}
}

func TestBearerToken_CachedAcrossCalls(t *testing.T) {
	authCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth", func(w http.ResponseWriter, r *http.Request) {
		authCalls++
		authOK(w, "tok-1")
	})
	mux.HandleFunc("/api/payers", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Payer{{ID: "60054", Name: "Aetna"}})
	})

	c, _ := newTestClient(t, mux)

	for i := 0; i < 3; i++ {
		if _, err := c.SearchPayers(context.Background(), "aetna"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if authCalls != 1 {
		t.Fatalf("expected 1 auth call for 3 requests, got %d", authCalls)
	}
}

func TestBearerToken_RefreshedAfterExpiry(t *testing.T) {
	authCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth", func(w http.ResponseWriter, r *http.Request) {
		authCalls++
		authOK(w, "tok")
	})
	mux.HandleFunc("/api/payers", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Payer{})
	})

	c, _ := newTestClient(t, mux)

	current := time.Now()
	c.now = func() time.Time { return current }

	if _, err := c.SearchPayers(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Jump past the 55 minute TTL; the next call must re-authenticate.
	current = current.Add(56 * time.Minute)
	if _, err := c.SearchPayers(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if authCalls != 2 {
		t.Fatalf("expected 2 auth calls, got %d", authCalls)
	}
}

func TestDoAuthorized_ReauthenticatesOnUpstream401(t *testing.T) {
	authCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth", func(w http.ResponseWriter, r *http.Request) {
		authCalls++
		authOK(w, "tok")
	})
	payerCalls := 0
	mux.HandleFunc("/api/payers", func(w http.ResponseWriter, r *http.Request) {
		payerCalls++
		// Upstream revoked the first token early.
		if payerCalls == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode([]Payer{{ID: "1", Name: "Cigna"}})
	})

	c, _ := newTestClient(t, mux)

	payers, err := c.SearchPayers(context.Background(), "cigna")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payers) != 1 {
		t.Fatalf("expected 1 payer, got %d", len(payers))
	}
	if authCalls != 2 {
		t.Fatalf("expected re-authentication, got %d auth calls", authCalls)
	}
}

func TestBearerToken_BadCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, _ := newTestClient(t, mux)

	_, err := c.SearchPayers(context.Background(), "x")
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestVerify_UpstreamFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth", func(w http.ResponseWriter, r *http.Request) {
		authOK(w, "tok")
	})
	mux.HandleFunc("/api/vobs", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"payer system offline"}`))
	})

	c, _ := newTestClient(t, mux)

	_, err := c.Verify(context.Background(), VerifyParams{FirstName: "A", LastName: "B", MemberID: "M", PayerID: "P"})
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestExportPDF(t *testing.T) {
	pdf := []byte("%PDF-1.7 fake")
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth", func(w http.ResponseWriter, r *http.Request) {
		authOK(w, "tok")
	})
	mux.HandleFunc("/api/vobs/vob-42/export", func(w http.ResponseWriter, r *http.Request) {
		w.Write(pdf)
	})

	c, _ := newTestClient(t, mux)

	got, err := c.ExportPDF(context.Background(), "vob-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != string(pdf) {
		t.Fatalf("pdf bytes = %q", got)
	}
}
