package weather

import "strings"

// WarningType is one entry of the fixed hazard catalog. The values match the
// upstream warning statement codes.
type WarningType string

const (
	WarnRainAmber        WarningType = "WRAINA"
	WarnRainRed          WarningType = "WRAINR"
	WarnRainBlack        WarningType = "WRAINB"
	WarnThunderstorm     WarningType = "WTS"
	WarnFloodingNorth    WarningType = "WFNTSA"
	WarnLandslip         WarningType = "WL"
	WarnStrongMonsoon    WarningType = "WMSGNL"
	WarnFrost            WarningType = "WFROST"
	WarnFireYellow       WarningType = "WFIREY"
	WarnFireRed          WarningType = "WFIRER"
	WarnColdWeather      WarningType = "WCOLD"
	WarnVeryHotWeather   WarningType = "WHOT"
	WarnTsunami          WarningType = "WTMW"
	WarnTyphoonSignal1   WarningType = "TC1"
	WarnTyphoonSignal3   WarningType = "TC3"
	WarnTyphoonSignal8NE WarningType = "TC8NE"
	WarnTyphoonSignal8NW WarningType = "TC8NW"
	WarnTyphoonSignal8SE WarningType = "TC8SE"
	WarnTyphoonSignal8SW WarningType = "TC8SW"
	WarnTyphoonSignal9   WarningType = "TC9"
	WarnTyphoonSignal10  WarningType = "TC10"
)

type warningInfo struct {
	nameZh string
	nameEn string
}

var warningCatalog = map[WarningType]warningInfo{
	WarnTyphoonSignal1:   {"一號戒備信號", "Standby Signal No. 1"},
	WarnTyphoonSignal3:   {"三號強風信號", "Strong Wind Signal No. 3"},
	WarnTyphoonSignal8NE: {"八號東北烈風或暴風信號", "No. 8 Northeast Gale or Storm Signal"},
	WarnTyphoonSignal8NW: {"八號西北烈風或暴風信號", "No. 8 Northwest Gale or Storm Signal"},
	WarnTyphoonSignal8SE: {"八號東南烈風或暴風信號", "No. 8 Southeast Gale or Storm Signal"},
	WarnTyphoonSignal8SW: {"八號西南烈風或暴風信號", "No. 8 Southwest Gale or Storm Signal"},
	WarnTyphoonSignal9:   {"九號烈風或暴風風力增強信號", "Increasing Gale or Storm Signal No. 9"},
	WarnTyphoonSignal10:  {"十號颶風信號", "Hurricane Signal No. 10"},
	WarnRainAmber:        {"黃色暴雨警告信號", "Amber Rainstorm Warning Signal"},
	WarnRainRed:          {"紅色暴雨警告信號", "Red Rainstorm Warning Signal"},
	WarnRainBlack:        {"黑色暴雨警告信號", "Black Rainstorm Warning Signal"},
	WarnThunderstorm:     {"雷暴警告", "Thunderstorm Warning"},
	WarnFloodingNorth:    {"新界北部水浸特別報告", "Special Announcement on Flooding in Northern New Territories"},
	WarnLandslip:         {"山泥傾瀉警告", "Landslip Warning"},
	WarnStrongMonsoon:    {"強烈季候風信號", "Strong Monsoon Signal"},
	WarnFrost:            {"霜凍警告", "Frost Warning"},
	WarnFireYellow:       {"黃色火災危險警告", "Yellow Fire Danger Warning"},
	WarnFireRed:          {"紅色火災危險警告", "Red Fire Danger Warning"},
	WarnColdWeather:      {"寒冷天氣警告", "Cold Weather Warning"},
	WarnVeryHotWeather:   {"酷熱天氣警告", "Very Hot Weather Warning"},
	WarnTsunami:          {"海嘯警告", "Tsunami Warning"},
}

// ParseWarningType maps an upstream code to a catalog entry.
func ParseWarningType(code string) (WarningType, bool) {
	w := WarningType(strings.ToUpper(strings.TrimSpace(code)))
	_, ok := warningCatalog[w]
	return w, ok
}

// NameEn returns the canonical English name of the warning.
func (w WarningType) NameEn() string {
	return warningCatalog[w].nameEn
}

// NameZh returns the canonical Chinese name of the warning.
func (w WarningType) NameZh() string {
	return warningCatalog[w].nameZh
}

// Known reports whether w is part of the catalog.
func (w WarningType) Known() bool {
	_, ok := warningCatalog[w]
	return ok
}
