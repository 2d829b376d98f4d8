package viseme

// ---------------------------------------------------------------------------
// Viseme vocabulary — Rhubarb mouth shapes mapped to VRM blend targets.
// Rhubarb emits: A, B, C, D, E, F, G, H, X
// VRM drives:    aa (jaw open), ee (wide smile), ih (slight smile),
//                oh (round), ou (pucker)
// ---------------------------------------------------------------------------

const (
	ShapeClosed   = "A" // closed mouth (M, B, P) — lips pressed together
	ShapeSlight   = "B" // slightly open (K, S, T and most consonants)
	ShapeEE       = "C" // EE sound (beet, see) — wide smile
	ShapeAA       = "D" // AA sound (bat, back) — jaw dropped wide
	ShapeOH       = "E" // AH/OH sound (bought, dog) — round open
	ShapeOO       = "F" // OO sound (boot, two) — tight pucker
	ShapeFV       = "G" // F/V sound — teeth on lip
	ShapeL        = "H" // L sound — tongue up, mouth slightly open
	ShapeSilence  = "X" // silence/rest — mouth fully closed
)

// BlendTargets lists the VRM blend shape names in render order.
var BlendTargets = []string{"aa", "ee", "ih", "oh", "ou"}

// shapeWeights holds the blend weight vector for each mouth shape. The values
// are tuned for natural enunciation: "A" compresses the lips slightly rather
// than leaving the face neutral, and "X" closes the mouth completely for
// clear word boundaries.
var shapeWeights = map[string]map[string]float64{
	ShapeClosed:  {"aa": 0.0, "ee": 0.0, "ih": 0.0, "oh": 0.0, "ou": 0.15},
	ShapeSlight:  {"aa": 0.4, "ee": 0.0, "ih": 0.25, "oh": 0.0, "ou": 0.0},
	ShapeEE:      {"aa": 0.25, "ee": 0.85, "ih": 0.2, "oh": 0.0, "ou": 0.0},
	ShapeAA:      {"aa": 0.9, "ee": 0.0, "ih": 0.1, "oh": 0.0, "ou": 0.0},
	ShapeOH:      {"aa": 0.55, "ee": 0.0, "ih": 0.0, "oh": 0.75, "ou": 0.0},
	ShapeOO:      {"aa": 0.2, "ee": 0.0, "ih": 0.0, "oh": 0.2, "ou": 0.8},
	ShapeFV:      {"aa": 0.15, "ee": 0.0, "ih": 0.35, "oh": 0.0, "ou": 0.0},
	ShapeL:       {"aa": 0.35, "ee": 0.0, "ih": 0.15, "oh": 0.0, "ou": 0.0},
	ShapeSilence: {"aa": 0.0, "ee": 0.0, "ih": 0.0, "oh": 0.0, "ou": 0.0},
}

// WeightsFor returns a copy of the blend weight vector for a mouth shape.
// Unknown shapes map to silence, so a new Rhubarb shape code can never
// produce a nil weight map downstream.
func WeightsFor(shape string) map[string]float64 {
	src, ok := shapeWeights[shape]
	if !ok {
		src = shapeWeights[ShapeSilence]
	}
	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// KnownShape reports whether shape is part of the vocabulary.
func KnownShape(shape string) bool {
	_, ok := shapeWeights[shape]
	return ok
}
