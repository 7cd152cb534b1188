package scoring

// LanguageTable holds the fixed letter-frequency table and calibration
// window for one language. The calibration constants were established once
// against the table and must not be recomputed, or existing scores would
// drift.
type LanguageTable struct {
	// Frequencies maps each rune of the language's alphabet to its
	// relative frequency
	Frequencies map[rune]float64

	// CalibrationLow is the raw value mapped to the minimum score
	CalibrationLow float64

	// CalibrationHigh is the raw value mapped to the maximum score
	CalibrationHigh float64
}

var builtinTables = map[string]*LanguageTable{
	"en": {
		Frequencies: map[rune]float64{
			'a': 0.08167, 'b': 0.01492, 'c': 0.02782, 'd': 0.04253,
			'e': 0.12702, 'f': 0.02228, 'g': 0.02015, 'h': 0.06094,
			'i': 0.06966, 'j': 0.00153, 'k': 0.00772, 'l': 0.04025,
			'm': 0.02406, 'n': 0.06749, 'o': 0.07507, 'p': 0.01929,
			'q': 0.00095, 'r': 0.05987, 's': 0.06327, 't': 0.09056,
			'u': 0.02758, 'v': 0.00978, 'w': 0.02360, 'x': 0.00150,
			'y': 0.01974, 'z': 0.00074,
		},
		CalibrationLow:  5.5,
		CalibrationHigh: 750,
	},
	"es": {
		Frequencies: map[rune]float64{
			'a': 0.11525, 'b': 0.02215, 'c': 0.04019, 'd': 0.05010,
			'e': 0.12181, 'f': 0.00692, 'g': 0.01768, 'h': 0.00703,
			'i': 0.06247, 'j': 0.00493, 'k': 0.00011, 'l': 0.04967,
			'm': 0.03157, 'n': 0.06712, 'o': 0.08683, 'p': 0.02510,
			'q': 0.00877, 'r': 0.06871, 's': 0.07977, 't': 0.04632,
			'u': 0.02927, 'v': 0.01138, 'w': 0.00017, 'x': 0.00215,
			'y': 0.01008, 'z': 0.00467, 'ñ': 0.00311,
		},
		CalibrationLow:  5.7,
		CalibrationHigh: 750,
	},
	"de": {
		Frequencies: map[rune]float64{
			'a': 0.06516, 'b': 0.01886, 'c': 0.02732, 'd': 0.05076,
			'e': 0.16396, 'f': 0.01656, 'g': 0.03009, 'h': 0.04577,
			'i': 0.06550, 'j': 0.00268, 'k': 0.01417, 'l': 0.03437,
			'm': 0.02534, 'n': 0.09776, 'o': 0.02594, 'p': 0.00670,
			'q': 0.00018, 'r': 0.07003, 's': 0.07270, 't': 0.06154,
			'u': 0.04166, 'v': 0.00846, 'w': 0.01921, 'x': 0.00034,
			'y': 0.00039, 'z': 0.01134, 'ä': 0.00578, 'ö': 0.00443,
			'ü': 0.00995, 'ß': 0.00307,
		},
		CalibrationLow:  4.2,
		CalibrationHigh: 900,
	},
}

// SupportedLanguages lists the language codes with built-in tables
func SupportedLanguages() []string {
	return []string{"de", "en", "es"}
}
