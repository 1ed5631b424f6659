package normalize

import (
	"testing"
	"time"

	"lottery-proxy/internal/domain"
)

func TestParseTurnDate(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"25/12/2025", "2025-12-25", false},
		{"01/02/2025", "2025-02-01", false},
		{"1/2/2025", "2025-02-01", false},
		{"25-12-2025", "2025-12-25", false},
		{"", "", true},
		{"12/2025", "", true},
		{"aa/bb/cccc", "", true},
		{"32/01/2025", "", true},
		{"01/13/2025", "", true},
	}
	for _, tc := range cases {
		got, err := ParseTurnDate(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseTurnDate(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTurnDate(%q): unexpected error %v", tc.in, err)
			continue
		}
		if formatted := domain.FormatDate(got); formatted != tc.want {
			t.Errorf("ParseTurnDate(%q) = %s, want %s", tc.in, formatted, tc.want)
		}
	}
}

func TestParseDetailCountsEveryNumber(t *testing.T) {
	detail := `["12345","67890","11111,22222","3","4","5,6,7","8","9","10"]`
	results, ok := ParseDetail(detail)
	if !ok {
		t.Fatal("expected detail to parse")
	}
	// 9 tiers, two with multiple winners: 12 numbers total
	if len(results) != 12 {
		t.Fatalf("got %d results, want 12", len(results))
	}

	// tier 2 holds two numbers with 1-based orders
	var g2 []domain.Result
	for _, r := range results {
		if r.PrizeCode == "G2" {
			g2 = append(g2, r)
		}
	}
	if len(g2) != 2 || g2[0].PrizeOrder != 1 || g2[1].PrizeOrder != 2 {
		t.Fatalf("unexpected G2 lines: %+v", g2)
	}
	if g2[0].ResultNumber != "11111" || g2[1].ResultNumber != "22222" {
		t.Fatalf("unexpected G2 numbers: %+v", g2)
	}
}

func TestParseDetailPreservesZeroPadding(t *testing.T) {
	results, ok := ParseDetail(`["00042"]`)
	if !ok || len(results) != 1 {
		t.Fatalf("unexpected parse outcome: ok=%v results=%v", ok, results)
	}
	if results[0].ResultNumber != "00042" {
		t.Fatalf("zero padding lost: %q", results[0].ResultNumber)
	}
}

func TestParseDetailShortTierList(t *testing.T) {
	// fewer than 9 tiers is fine: trailing tiers are simply absent
	results, ok := ParseDetail(`["12345","67890"]`)
	if !ok {
		t.Fatal("expected detail to parse")
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].PrizeCode != "DB" || results[1].PrizeCode != "G1" {
		t.Fatalf("unexpected prize codes: %+v", results)
	}
}

func TestParseDetailMalformedTierEntrySkipped(t *testing.T) {
	// a non-string tier must not invalidate the remaining tiers
	results, ok := ParseDetail(`["12345",42,"67890"]`)
	if !ok {
		t.Fatal("expected detail to parse")
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[1].PrizeCode != "G2" {
		t.Fatalf("expected surviving tier G2, got %+v", results[1])
	}
}

func TestParseDetailMalformed(t *testing.T) {
	for _, detail := range []string{"", "not json", `{"a":1}`, `"flat"`} {
		if _, ok := ParseDetail(detail); ok {
			t.Errorf("ParseDetail(%q): expected failure", detail)
		}
	}
}

func TestIssuesToDrawsOneDrawPerDateProvince(t *testing.T) {
	issues := []domain.RawIssue{
		{TurnNum: "24/12/2025", Detail: `["11111","22222"]`},
		{TurnNum: "25/12/2025", Detail: `["33333","44444,55555"]`},
	}
	draws, skips := IssuesToDraws("dana", issues, "")
	if len(skips) != 0 {
		t.Fatalf("unexpected skips: %+v", skips)
	}
	if len(draws) != 2 {
		t.Fatalf("got %d draws, want 2", len(draws))
	}
	for _, d := range draws {
		if d.ProvinceCode != "DN" || d.RegionCode != "MT" {
			t.Fatalf("unexpected draw provenance: %+v", d)
		}
	}
	if len(draws[1].Results) != 3 {
		t.Fatalf("got %d results for second draw, want 3", len(draws[1].Results))
	}
}

func TestIssuesToDrawsFilterDate(t *testing.T) {
	issues := []domain.RawIssue{
		{TurnNum: "24/12/2025", Detail: `["11111"]`},
		{TurnNum: "25/12/2025", Detail: `["22222"]`},
	}
	draws, skips := IssuesToDraws("tphc", issues, "2025-12-25")
	if len(draws) != 1 || draws[0].DrawDate != "2025-12-25" {
		t.Fatalf("unexpected draws: %+v", draws)
	}
	if len(skips) != 1 || skips[0].Reason != SkipDateFiltered {
		t.Fatalf("unexpected skips: %+v", skips)
	}
}

func TestIssuesToDrawsDropsMalformedIssues(t *testing.T) {
	issues := []domain.RawIssue{
		{TurnNum: "garbage", Detail: `["11111"]`},
		{TurnNum: "25/12/2025", Detail: `not json`},
		{TurnNum: "25/12/2025", Detail: `["",""]`},
		{TurnNum: "26/12/2025", Detail: `["11111"]`},
	}
	draws, skips := IssuesToDraws("angi", issues, "")
	if len(draws) != 1 {
		t.Fatalf("got %d draws, want 1", len(draws))
	}
	reasons := map[SkipReason]int{}
	for _, s := range skips {
		reasons[s.Reason]++
	}
	if reasons[SkipBadDate] != 1 || reasons[SkipBadDetail] != 1 || reasons[SkipNoResults] != 1 {
		t.Fatalf("unexpected skip reasons: %+v", reasons)
	}
}

func TestIssuesToDrawsUnknownGame(t *testing.T) {
	issues := []domain.RawIssue{{TurnNum: "25/12/2025", Detail: `["11111"]`}}
	draws, skips := IssuesToDraws("nope", issues, "")
	if len(draws) != 0 {
		t.Fatalf("unexpected draws for unknown game: %+v", draws)
	}
	if len(skips) != 1 || skips[0].Reason != SkipUnknownGame {
		t.Fatalf("unexpected skips: %+v", skips)
	}
}

func TestIssuesToDrawsNorthernRotation(t *testing.T) {
	// 2025-12-21 is a Sunday; the week walks the full rotation
	wantByDay := map[string]string{
		"21/12/2025": "TB", // Sunday
		"22/12/2025": "HN", // Monday
		"23/12/2025": "QN", // Tuesday
		"24/12/2025": "BN", // Wednesday
		"25/12/2025": "HN", // Thursday
		"26/12/2025": "HP", // Friday
		"27/12/2025": "ND", // Saturday
	}
	for turnNum, wantProvince := range wantByDay {
		draws, _ := IssuesToDraws("miba", []domain.RawIssue{{TurnNum: turnNum, Detail: `["11111"]`}}, "")
		if len(draws) != 1 {
			t.Fatalf("%s: got %d draws, want 1", turnNum, len(draws))
		}
		if draws[0].ProvinceCode != wantProvince {
			t.Errorf("%s: province %s, want %s", turnNum, draws[0].ProvinceCode, wantProvince)
		}
		if draws[0].RegionCode != "MB" {
			t.Errorf("%s: region %s, want MB", turnNum, draws[0].RegionCode)
		}
	}
}

func TestNorthProvinceIsPureFunctionOfDate(t *testing.T) {
	date := time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC)
	first := domain.NorthProvinceForDate(date)
	for i := 0; i < 50; i++ {
		if got := domain.NorthProvinceForDate(date); got != first {
			t.Fatalf("call %d: got %s, want %s", i, got, first)
		}
	}
}
