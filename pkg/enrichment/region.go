package enrichment

// sectorRegion maps a Singapore postal sector (the first two digits of a
// 6-digit postal code) to its CEA-style planning region. This is closed
// domain data with no third-party equivalent in the pack (see DESIGN.md).
var sectorRegion = map[int]string{
	1: "CENTRAL", 2: "CENTRAL", 3: "CENTRAL", 4: "CENTRAL", 5: "CENTRAL", 6: "CENTRAL",
	7: "CENTRAL", 8: "CENTRAL",
	14: "CENTRAL", 15: "CENTRAL", 16: "CENTRAL",
	9: "CENTRAL", 10: "CENTRAL", 11: "CENTRAL",
	12: "CENTRAL", 13: "CENTRAL",
	17: "EAST", 18: "EAST", 19: "EAST", 20: "EAST",
	41: "EAST", 42: "EAST", 43: "EAST", 44: "EAST", 45: "EAST",
	46: "EAST", 47: "EAST", 48: "EAST",
	21: "WEST", 22: "WEST", 23: "WEST",
	60: "WEST", 61: "WEST", 62: "WEST", 63: "WEST", 64: "WEST",
	65: "WEST", 66: "WEST", 67: "WEST", 68: "WEST",
	24: "NORTHWEST", 25: "NORTHWEST", 26: "NORTHWEST", 27: "NORTHWEST",
	69: "NORTHWEST", 70: "NORTHWEST", 71: "NORTHWEST",
	72: "NORTH", 73: "NORTH",
	75: "NORTH", 76: "NORTH",
	28: "NORTHEAST", 29: "NORTHEAST", 30: "NORTHEAST",
	77: "NORTHEAST", 78: "NORTHEAST", 79: "NORTHEAST", 80: "NORTHEAST", 81: "NORTHEAST", 82: "NORTHEAST",
	31: "CENTRAL", 32: "CENTRAL", 33: "CENTRAL",
	34: "CENTRAL", 35: "CENTRAL", 36: "CENTRAL", 37: "CENTRAL",
	38: "CENTRAL", 39: "CENTRAL", 40: "CENTRAL",
	49: "EAST", 50: "EAST", 51: "EAST", 52: "EAST",
	53: "NORTHEAST", 54: "NORTHEAST", 55: "NORTHEAST", 56: "NORTHEAST", 57: "NORTHEAST",
	58: "NORTH", 59: "NORTH",
}

// RegionFromPostal resolves the first plausible postal code in codes to a
// region label, or "" if none resolve (region is left unset rather than
// guessed).
func RegionFromPostal(codes []string) string {
	for _, code := range codes {
		if len(code) != 6 {
			continue
		}
		sector := (int(code[0]-'0') * 10) + int(code[1]-'0')
		if region, ok := sectorRegion[sector]; ok {
			return region
		}
	}
	return ""
}
