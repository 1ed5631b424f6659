package domain

import "time"

// PrizeCodes maps tier index 0-8 of the upstream detail payload to the prize
// code stored with each result. Index 0 is the special prize.
var PrizeCodes = [9]string{"DB", "G1", "G2", "G3", "G4", "G5", "G6", "G7", "G8"}

// PrizeCodeForTier returns the prize code for a detail tier index.
func PrizeCodeForTier(i int) (string, bool) {
	if i < 0 || i >= len(PrizeCodes) {
		return "", false
	}
	return PrizeCodes[i], true
}

// TierForPrizeCode is the inverse mapping, used when rendering stored
// results back into the upstream detail shape.
func TierForPrizeCode(code string) (int, bool) {
	for i, c := range PrizeCodes {
		if c == code {
			return i, true
		}
	}
	return 0, false
}

type gameMeta struct {
	region   Region
	province string // empty for the north: province rotates by weekday
}

var gameProvinces = map[string]gameMeta{
	"miba": {RegionNorth, ""},

	"dana":  {RegionCentral, "DN"},
	"bidi":  {RegionCentral, "BDI"},
	"dalak": {RegionCentral, "DLK"},
	"dano":  {RegionCentral, "DNO"},
	"gila":  {RegionCentral, "GLA"},
	"khho":  {RegionCentral, "KHO"},
	"kotu":  {RegionCentral, "KTU"},
	"nith":  {RegionCentral, "NTH"},
	"phye":  {RegionCentral, "PYE"},
	"qubi":  {RegionCentral, "QBI"},
	"quna":  {RegionCentral, "QNM"},
	"qung":  {RegionCentral, "QNG"},
	"qutr":  {RegionCentral, "QTR"},
	"thth":  {RegionCentral, "THH"},

	"angi":  {RegionSouth, "AGI"},
	"bali":  {RegionSouth, "BLI"},
	"bidu":  {RegionSouth, "BDU"},
	"biph":  {RegionSouth, "BPH"},
	"cama":  {RegionSouth, "CMA"},
	"cath":  {RegionSouth, "CTH"},
	"dalat": {RegionSouth, "DLT"},
	"dona":  {RegionSouth, "DNA"},
	"doth":  {RegionSouth, "DTH"},
	"hagi":  {RegionSouth, "HGI"},
	"kigi":  {RegionSouth, "KGI"},
	"loan":  {RegionSouth, "LAN"},
	"sotr":  {RegionSouth, "STR"},
	"tani":  {RegionSouth, "TNI"},
	"tigi":  {RegionSouth, "TGI"},
	"tphc":  {RegionSouth, "HCM"},
	"trvi":  {RegionSouth, "TVI"},
	"vilo":  {RegionSouth, "VLO"},
	"vuta":  {RegionSouth, "VTA"},
}

// GameRegionProvince resolves an upstream game code to its region and fixed
// province code. The province is empty for northern games; callers must
// resolve it per draw date with NorthProvinceForDate.
func GameRegionProvince(gameCode string) (Region, string, bool) {
	m, ok := gameProvinces[gameCode]
	if !ok {
		return 0, "", false
	}
	return m.region, m.province, true
}

var regionGameCodes = [RegionCount][]string{
	RegionSouth:   {"angi", "bali", "bidu", "biph", "cama", "cath", "dalat", "dona", "doth", "hagi", "kigi", "loan", "sotr", "tani", "tigi", "tphc", "trvi", "vilo", "vuta"},
	RegionCentral: {"dana", "bidi", "dalak", "dano", "gila", "khho", "kotu", "nith", "phye", "qubi", "quna", "qung", "qutr", "thth"},
	RegionNorth:   {"miba"},
}

// RegionGameCodes returns the region's game list in upstream call order.
func RegionGameCodes(r Region) []string {
	if r < 0 || int(r) >= RegionCount {
		return nil
	}
	return regionGameCodes[r]
}

// The northern draw runs in one province per weekday on a fixed rotation.
// Hanoi draws twice a week (Monday and Thursday); that is the real schedule,
// not a typo.
var northWeekdayProvince = [7]string{
	time.Sunday:    "TB",
	time.Monday:    "HN",
	time.Tuesday:   "QN",
	time.Wednesday: "BN",
	time.Thursday:  "HN",
	time.Friday:    "HP",
	time.Saturday:  "ND",
}

// NorthProvinceForDate resolves the northern province drawing on a given date.
// Pure function of the date's weekday.
func NorthProvinceForDate(t time.Time) string {
	return northWeekdayProvince[t.Weekday()]
}
