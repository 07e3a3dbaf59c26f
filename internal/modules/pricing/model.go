// README: Fare tier definition and the named presets shipped with the service.
package pricing

// Tier is a two-tier linear fare: a flat BaseFare covers the first BaseKm,
// every kilometre beyond that costs PerKmRate.
type Tier struct {
	Name      string
	BaseFare  float64
	BaseKm    float64
	PerKmRate float64
	Currency  string
}

const (
	PresetStandard = "standard"
	PresetLegacy   = "legacy"
)

// DefaultPreset is used when no preset is configured.
const DefaultPreset = PresetStandard

var presets = map[string]Tier{
	PresetStandard: {Name: PresetStandard, BaseFare: 13.0, BaseKm: 4.0, PerKmRate: 2.5, Currency: "PHP"},
	// first published jeepney minimum fare
	PresetLegacy: {Name: PresetLegacy, BaseFare: 10.0, BaseKm: 4.0, PerKmRate: 2.5, Currency: "PHP"},
}

// Preset returns the built-in tier registered under name.
func Preset(name string) (Tier, bool) {
	t, ok := presets[name]
	return t, ok
}

// Quote is a caller-visible fare for a distance, both already rounded.
type Quote struct {
	DistanceKm float64
	Fare       float64
	Currency   string
}
