package extract

import "testing"

func TestFromTranscript_FullIntakeCall(t *testing.T) {
	transcript := `Agent: Thanks for calling, who is your insurance with?
Caller: I'm with Blue Cross, my member ID is ZGP12345678.
Agent: And what state are you calling from?
Caller: I'm in Florida. I'm looking for intensive outpatient treatment.
Agent: Do we have your permission to verify your benefits?
Caller: Yes, you can verify my insurance.`

	fields := FromTranscript(transcript)

	if fields.Carrier != "Blue Cross Blue Shield" {
		t.Errorf("carrier = %q, want Blue Cross Blue Shield", fields.Carrier)
	}
	if fields.MemberID != "ZGP12345678" {
		t.Errorf("memberID = %q, want ZGP12345678", fields.MemberID)
	}
	if fields.State != "FL" {
		t.Errorf("state = %q, want FL", fields.State)
	}
	if fields.ServiceType != "iop" {
		t.Errorf("serviceType = %q, want iop", fields.ServiceType)
	}
	if !fields.Consent {
		t.Error("expected consent to be detected")
	}
}

func TestFromTranscript_CarrierAliases(t *testing.T) {
	tests := []struct {
		transcript string
		want       string
	}{
		{"I have UHC through work", "UnitedHealthcare"},
		{"my insurance is united healthcare", "UnitedHealthcare"},
		{"we use BCBS of texas", "Blue Cross Blue Shield"},
		{"I'm covered by Kaiser Permanente", "Kaiser Permanente"},
		{"it's aetna", "Aetna"},
	}
	for _, tc := range tests {
		if got := FromTranscript(tc.transcript).Carrier; got != tc.want {
			t.Errorf("carrier from %q = %q, want %q", tc.transcript, got, tc.want)
		}
	}
}

func TestFromTranscript_CarrierNeedsWordBoundary(t *testing.T) {
	fields := FromTranscript("I brought her a chrysanthemum bouquet")
	if fields.Carrier != "" {
		t.Errorf("expected no carrier from %q match inside a word, got %q", "anthem", fields.Carrier)
	}
}

func TestFromTranscript_MemberIDFormats(t *testing.T) {
	tests := []struct {
		transcript string
		want       string
	}{
		{"my member id is W123456789", "W123456789"},
		{"Member Number: ABC1234567", "ABC1234567"},
		{"the policy number is 998877665", "998877665"},
		{"my id number is w12345678, got that?", "W12345678"},
		{"I don't have my card with me", ""},
	}
	for _, tc := range tests {
		if got := FromTranscript(tc.transcript).MemberID; got != tc.want {
			t.Errorf("memberID from %q = %q, want %q", tc.transcript, got, tc.want)
		}
	}
}

func TestFromTranscript_StatePrefersLongestName(t *testing.T) {
	fields := FromTranscript("I live in west virginia right now")
	if fields.State != "WV" {
		t.Errorf("state = %q, want WV", fields.State)
	}
}

func TestFromTranscript_ServiceTypes(t *testing.T) {
	tests := []struct {
		transcript string
		want       string
	}{
		{"I think I need detox first", "detox"},
		{"looking at residential treatment options", "residential"},
		{"they recommended partial hospitalization", "php"},
		{"something outpatient would work better", "outpatient"},
		{"my doctor mentioned medication assisted treatment", "mat"},
		{"just calling about billing", ""},
	}
	for _, tc := range tests {
		if got := FromTranscript(tc.transcript).ServiceType; got != tc.want {
			t.Errorf("serviceType from %q = %q, want %q", tc.transcript, got, tc.want)
		}
	}
}

func TestFromTranscript_ConsentMustBeExplicit(t *testing.T) {
	if FromTranscript("we talked about the consent form").Consent {
		t.Error("mentioning consent should not count as giving it")
	}
	if !FromTranscript("I authorize you to check my benefits").Consent {
		t.Error("explicit authorization should count as consent")
	}
}

func TestFromTranscript_EmptyTranscript(t *testing.T) {
	fields := FromTranscript("")
	if !fields.Empty() {
		t.Errorf("expected empty fields, got %+v", fields)
	}
}

func TestSortedAliases_LongestFirst(t *testing.T) {
	aliases := sortedAliases()
	if len(aliases) != len(carriers) {
		t.Fatalf("expected %d aliases, got %d", len(carriers), len(aliases))
	}
	for i := 1; i < len(aliases); i++ {
		prev, cur := aliases[i-1], aliases[i]
		if len(prev) < len(cur) || (len(prev) == len(cur) && prev > cur) {
			t.Fatalf("aliases out of order at %d: %q before %q", i, prev, cur)
		}
	}
}

func TestFromTranscript_Deterministic(t *testing.T) {
	transcript := "Caller with anthem in ohio, member id is A123456789, wants iop, says I consent to verification."
	first := FromTranscript(transcript)
	for i := 0; i < 5; i++ {
		if FromTranscript(transcript) != first {
			t.Fatal("extraction is not deterministic")
		}
	}
}
