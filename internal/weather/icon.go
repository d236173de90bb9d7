package weather

// Icon is the semantic weather-status code used by the upstream feeds.
// Presentation metadata (colors, bitmap assets) is deliberately not part of
// this catalog; the display layer owns that mapping.
type Icon int

type iconInfo struct {
	name          string
	descriptionZh string
	descriptionEn string
}

var iconCatalog = map[Icon]iconInfo{
	50: {"pic50", "陽光充沛", "Sunny"},
	51: {"pic51", "間中有陽光", "Sunny Periods"},
	52: {"pic52", "短暫陽光", "Sunny Intervals"},
	53: {"pic53", "間中有陽光幾陣驟雨", "Sunny Periods with a Few Showers"},
	54: {"pic54", "短暫陽光有驟雨", "Sunny Intervals with Showers"},
	60: {"pic60", "多雲", "Cloudy"},
	61: {"pic61", "密雲", "Overcast"},
	62: {"pic62", "微雨", "Light Rain"},
	63: {"pic63", "雨", "Rain"},
	64: {"pic64", "大雨", "Heavy Rain"},
	65: {"pic65", "雷暴", "Thunderstorms"},
	70: {"pic70", "天色良好", "Fine"},
	71: {"pic71", "天色良好", "Fine"},
	72: {"pic72", "天色良好", "Fine"},
	73: {"pic73", "天色良好", "Fine"},
	74: {"pic74", "天色良好", "Fine"},
	75: {"pic75", "天色良好", "Fine"},
	76: {"pic76", "大致多雲", "Mainly Cloudy"},
	77: {"pic77", "天色大致良好", "Mainly Fine"},
	80: {"pic80", "大風", "Windy"},
	81: {"pic81", "乾燥", "Dry"},
	82: {"pic82", "潮濕", "Humid"},
	83: {"pic83", "霧", "Fog"},
	84: {"pic84", "薄霧", "Mist"},
	85: {"pic85", "煙霞", "Haze"},
	90: {"pic90", "熱", "Hot"},
	91: {"pic91", "暖", "Warm"},
	92: {"pic92", "涼", "Cool"},
	93: {"pic93", "冷", "Cold"},
}

var iconsByName = func() map[string]Icon {
	m := make(map[string]Icon, len(iconCatalog))
	for code, info := range iconCatalog {
		m[info.name] = code
	}
	return m
}()

// IconByCode looks an icon up by its upstream numeric code.
func IconByCode(code int) (Icon, bool) {
	_, ok := iconCatalog[Icon(code)]
	return Icon(code), ok
}

// IconByName looks an icon up by its stable name, e.g. "pic51".
func IconByName(name string) (Icon, bool) {
	icon, ok := iconsByName[name]
	return icon, ok
}

// Code returns the upstream numeric code.
func (i Icon) Code() int {
	return int(i)
}

// Name returns the stable identifier used for serialization.
func (i Icon) Name() string {
	return iconCatalog[i].name
}

// DescriptionEn returns the English description of the icon.
func (i Icon) DescriptionEn() string {
	return iconCatalog[i].descriptionEn
}

// DescriptionZh returns the Chinese description of the icon.
func (i Icon) DescriptionZh() string {
	return iconCatalog[i].descriptionZh
}

// Known reports whether i is part of the catalog.
func (i Icon) Known() bool {
	_, ok := iconCatalog[i]
	return ok
}
