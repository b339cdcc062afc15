package projection

// Palette is the qualitative colour cycle for emphasised labels.
var Palette = []string{
	"#e41a1c", "#377eb8", "#4daf4a", "#984ea3", "#ff7f00",
	"#ffff33", "#a65628", "#f781bf", "#999999",
}

// NeutralColor marks items outside the emphasis subset.
const NeutralColor = "#d3d3d3"

// colorMap assigns every emphasised item a palette colour keyed by its
// label, in order of first appearance. Items sharing a label share a colour.
func colorMap(emphasis []int, labels []string) map[int]string {
	byLabel := make(map[string]string)
	out := make(map[int]string, len(emphasis))
	for _, idx := range emphasis {
		label := labels[idx]
		c, ok := byLabel[label]
		if !ok {
			c = Palette[len(byLabel)%len(Palette)]
			byLabel[label] = c
		}
		out[idx] = c
	}
	return out
}
