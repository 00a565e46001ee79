package geodata

// Band is one step of the air quality index scale.
type Band struct {
	Max   int // inclusive upper bound; the last band has no bound
	Label string
}

// Bands is the standard index scale, lowest first.
var Bands = []Band{
	{Max: 50, Label: "Good"},
	{Max: 100, Label: "Moderate"},
	{Max: 150, Label: "Unhealthy for Sensitive Groups"},
	{Max: 200, Label: "Unhealthy"},
	{Max: 300, Label: "Very Unhealthy"},
	{Max: -1, Label: "Hazardous"},
}

// BandIndex returns the position in Bands that aqi falls into.
func BandIndex(aqi int) int {
	for i, b := range Bands {
		if b.Max >= 0 && aqi <= b.Max {
			return i
		}
	}
	return len(Bands) - 1
}

// IndexCategory returns the category label for aqi.
func IndexCategory(aqi int) string {
	return Bands[BandIndex(aqi)].Label
}
