package tooling

import (
	"math"
	"strconv"
	"strings"

	"github.com/chazu/cutplan/pkg/units"
)

// GenerateMeaningfulName builds a title such as "6 mm Carbide End Mill",
// "1/4 inch HSS Drill Bit" or "#7 HSS Drill Bit" from the parameters.
func (t *Tool) GenerateMeaningfulName(u units.Units) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.params.meaningfulName(u)
}

func (p Params) meaningfulName(u units.Units) string {
	var b strings.Builder

	switch p.Type {
	case TypeTouchProbe, TypeToolLengthSwitch:
		// Size is irrelevant to the name.
	case TypeChamfer:
		b.WriteString(formatNumber(p.CuttingEdgeAngle * 2))
		b.WriteString(" degree ")
	default:
		b.WriteString(sizeName(p.Diameter, u))
		b.WriteString(" ")
	}

	switch p.Material {
	case MaterialHSS:
		b.WriteString("HSS ")
	case MaterialCarbide:
		b.WriteString("Carbide ")
	}

	switch p.Type {
	case TypeChamfer:
		b.WriteString("Chamfering Bit")
	default:
		b.WriteString(p.Type.Description())
	}
	return b.String()
}

// sizeName expresses a diameter the way a machinist would look for it on
// a shelf: millimetres in metric, otherwise a fraction, a drill gauge or
// decimal inches.
func sizeName(diameter float64, u units.Units) string {
	if u.IsMetric() {
		return formatNumber(diameter) + " mm"
	}
	if f := FractionalRepresentation(u.FromInternal(diameter), 64); f != "" {
		return f + " inch"
	}
	if g := GaugeNumberRepresentation(diameter, u); g != "" {
		return g
	}
	return formatNumber(u.FromInternal(diameter)) + " inch"
}

// formatNumber prints at most four decimals without trailing zeros.
func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
}

// fractionTolerance is how close a value must be to a fraction to be named
// after it.
const fractionTolerance = 1e-5

// FractionalRepresentation returns value as a whole number plus a binary
// fraction ("3/8", "1 1/2", "2") using denominators up to maxDenominator.
// It returns "" when no such fraction is close enough.
func FractionalRepresentation(value float64, maxDenominator int) string {
	if value <= 0 {
		return ""
	}

	whole := math.Floor(value)
	rest := value - whole
	if rest > 1-fractionTolerance {
		whole++
		rest = 0
	}
	if rest < fractionTolerance {
		return strconv.Itoa(int(whole))
	}

	for den := 2; den <= maxDenominator; den *= 2 {
		num := rest * float64(den)
		if math.Abs(num-math.Round(num)) < fractionTolerance*float64(den) {
			frac := strconv.Itoa(int(math.Round(num))) + "/" + strconv.Itoa(den)
			if whole > 0 {
				return strconv.Itoa(int(whole)) + " " + frac
			}
			return frac
		}
	}
	return ""
}

// gaugeTolerance is the largest difference, in inches, accepted between a
// diameter and a gauge size.
const gaugeTolerance = 0.0002

type gauge struct {
	name string
	inch float64
}

// Number and letter drill sizes.
var gauges = []gauge{
	{"#1", .2280}, {"#2", .2210}, {"#3", .2130}, {"#4", .2090}, {"#5", .2055},
	{"#6", .2040}, {"#7", .2010}, {"#8", .1990}, {"#9", .1960}, {"#10", .1935},
	{"#11", .1910}, {"#12", .1890}, {"#13", .1850}, {"#14", .1820}, {"#15", .1800},
	{"#16", .1770}, {"#17", .1730}, {"#18", .1695}, {"#19", .1660}, {"#20", .1610},
	{"#21", .1590}, {"#22", .1570}, {"#23", .1540}, {"#24", .1520}, {"#25", .1495},
	{"#26", .1470}, {"#27", .1440}, {"#28", .1405}, {"#29", .1360}, {"#30", .1285},
	{"#31", .1200}, {"#32", .1160}, {"#33", .1130}, {"#34", .1110}, {"#35", .1100},
	{"#36", .1065}, {"#37", .1040}, {"#38", .1015}, {"#39", .0995}, {"#40", .0980},
	{"#41", .0960}, {"#42", .0935}, {"#43", .0890}, {"#44", .0860}, {"#45", .0820},
	{"#46", .0810}, {"#47", .0785}, {"#48", .0760}, {"#49", .0730}, {"#50", .0700},
	{"#51", .0670}, {"#52", .0635}, {"#53", .0595}, {"#54", .0550}, {"#55", .0520},
	{"#56", .0465}, {"#57", .0430}, {"#58", .0420}, {"#59", .0410}, {"#60", .0400},
	{"#61", .0390}, {"#62", .0380}, {"#63", .0370}, {"#64", .0360}, {"#65", .0350},
	{"#66", .0330}, {"#67", .0320}, {"#68", .0310}, {"#69", .0292}, {"#70", .0280},
	{"#71", .0260}, {"#72", .0250}, {"#73", .0240}, {"#74", .0225}, {"#75", .0210},
	{"#76", .0200}, {"#77", .0180}, {"#78", .0160}, {"#79", .0145}, {"#80", .0135},

	{"A", .234}, {"B", .238}, {"C", .242}, {"D", .246}, {"E", .250},
	{"F", .257}, {"G", .261}, {"H", .266}, {"I", .272}, {"J", .277},
	{"K", .281}, {"L", .290}, {"M", .295}, {"N", .302}, {"O", .316},
	{"P", .323}, {"Q", .332}, {"R", .339}, {"S", .348}, {"T", .358},
	{"U", .368}, {"V", .377}, {"W", .386}, {"X", .397}, {"Y", .404},
	{"Z", .413},
}

// GaugeNumberRepresentation names a diameter (millimetres) after the
// closest number or letter drill. Gauges are imperial, so metric programs
// always get "".
func GaugeNumberRepresentation(size float64, u units.Units) string {
	if u.IsMetric() || size <= 0 {
		return ""
	}
	inches := size / float64(units.Inches)

	best, bestDiff := "", gaugeTolerance
	for _, g := range gauges {
		if d := math.Abs(inches - g.inch); d <= bestDiff {
			best, bestDiff = g.name, d
		}
	}
	return best
}
