package viseme

import (
	"strings"
	"unicode"

	"github.com/vevocube/mona-voice/internal/models"
)

// ---------------------------------------------------------------------------
// Text-to-viseme estimation — derives a mouth-shape timeline directly from
// text when forced alignment is unavailable or too slow. Two modes share the
// same merge/layout pipeline:
//
//   phoneme mode   — CMU pronouncing dictionary lookup, ARPABET symbols
//                    mapped to shapes with per-class duration weights
//   character mode — digraph scan (longest match first), used when no
//                    dictionary was loaded or for out-of-dictionary words
//
// Weights are relative durations, not seconds. The final layout stretches the
// weighted sequence over the real audio duration, so the timeline always
// spans exactly [0, duration] no matter how loosely text length tracks
// speech rate.
// ---------------------------------------------------------------------------

// Estimator converts spoken text into viseme timelines. Construct once at
// startup and share; it is stateless after construction.
type Estimator struct {
	dict *PhonemeDict // nil = character mode only
}

// NewEstimator returns an estimator. dict may be nil, in which case every
// word goes through the character scanner.
func NewEstimator(dict *PhonemeDict) *Estimator {
	return &Estimator{dict: dict}
}

// PhonemeMode reports whether a pronouncing dictionary is loaded.
func (e *Estimator) PhonemeMode() bool {
	return e.dict != nil
}

// Timeline produces an ordered, non-overlapping cue sequence spanning
// [0, duration]. Returns nil for empty text or a non-positive duration —
// callers treat nil as "no timeline", never as an error.
func (e *Estimator) Timeline(text string, duration float64) []models.VisemeCue {
	text = strings.TrimSpace(text)
	if text == "" || duration <= 0 {
		return nil
	}

	var entries []weightedShape
	if e.dict != nil {
		entries = e.phonemeScan(text)
	} else {
		entries = charScan(text)
	}

	entries = mergeShapes(entries)
	return layout(entries, duration)
}

// weightedShape is an intermediate (shape, relative duration) pair.
type weightedShape struct {
	shape  string
	weight float64
}

// Silence weights per punctuation mark — stronger pauses weigh more.
// A full stop holds the mouth closed about twice as long as a vowel.
const (
	pauseStrong = 2.0  // . ! ?
	pauseMedium = 1.0  // , ; :
	pauseShort  = 0.5  // dashes
	pauseWord   = 0.25 // word boundary
)

func punctuationPause(r rune) (float64, bool) {
	switch r {
	case '.', '!', '?', '…':
		return pauseStrong, true
	case ',', ';', ':':
		return pauseMedium, true
	case '-', '—', '–':
		return pauseShort, true
	}
	return 0, false
}

// Multi-letter patterns for character mode, checked longest-first (4 → 3 → 2)
// so "the" matches as a unit before decaying into t/h/e. Vowel clusters weigh
// like long vowels; consonant clusters like single consonants.
var digraphs4 = map[string]weightedShape{
	"ough": {ShapeOO, 1.2},
	"augh": {ShapeOH, 1.2},
	"eigh": {ShapeAA, 1.2},
	"tion": {ShapeSlight, 1.0},
}

var digraphs3 = map[string]weightedShape{
	"the": {ShapeSlight, 0.8},
	"ing": {ShapeEE, 1.0},
	"igh": {ShapeEE, 1.2},
	"tch": {ShapeSlight, 0.5},
	"dge": {ShapeSlight, 0.5},
	"ear": {ShapeEE, 1.2},
	"our": {ShapeOH, 1.2},
	"oor": {ShapeOH, 1.2},
}

var digraphs2 = map[string]weightedShape{
	"th": {ShapeSlight, 0.5},
	"ch": {ShapeSlight, 0.5},
	"sh": {ShapeSlight, 0.5},
	"ng": {ShapeSlight, 0.4},
	"ck": {ShapeSlight, 0.3},
	"gh": {ShapeSlight, 0.3},
	"ph": {ShapeFV, 0.5},
	"wh": {ShapeOO, 0.5},
	"qu": {ShapeOO, 0.5},
	"ee": {ShapeEE, 1.2},
	"ea": {ShapeEE, 1.2},
	"ei": {ShapeEE, 1.2},
	"ey": {ShapeEE, 1.2},
	"ai": {ShapeAA, 1.2},
	"ay": {ShapeAA, 1.2},
	"oo": {ShapeOO, 1.2},
	"ou": {ShapeOH, 1.2},
	"ow": {ShapeOH, 1.2},
	"oa": {ShapeOH, 1.2},
	"oi": {ShapeOH, 1.2},
	"oy": {ShapeOH, 1.2},
	"au": {ShapeOH, 1.2},
	"aw": {ShapeOH, 1.2},
	"ue": {ShapeOO, 1.2},
	"ui": {ShapeOO, 1.2},
}

// singleLetters maps each letter to its mouth shape and duration weight.
// Vowels weigh 1.0; stops are the shortest consonants.
var singleLetters = map[rune]weightedShape{
	'a': {ShapeAA, 1.0},
	'e': {ShapeEE, 1.0},
	'i': {ShapeEE, 1.0},
	'o': {ShapeOH, 1.0},
	'u': {ShapeOO, 1.0},
	'y': {ShapeEE, 0.8},
	'b': {ShapeClosed, 0.4},
	'm': {ShapeClosed, 0.4},
	'p': {ShapeClosed, 0.4},
	'f': {ShapeFV, 0.5},
	'v': {ShapeFV, 0.5},
	'l': {ShapeL, 0.5},
	'w': {ShapeOO, 0.5},
	'r': {ShapeL, 0.5},
	't': {ShapeSlight, 0.3},
	'd': {ShapeSlight, 0.3},
	'k': {ShapeSlight, 0.3},
	'g': {ShapeSlight, 0.3},
	'c': {ShapeSlight, 0.3},
	'q': {ShapeSlight, 0.3},
	's': {ShapeSlight, 0.4},
	'z': {ShapeSlight, 0.4},
	'x': {ShapeSlight, 0.4},
	'j': {ShapeSlight, 0.4},
	'n': {ShapeSlight, 0.4},
	'h': {ShapeSlight, 0.3},
}

// charScan walks the lowercased text left to right, matching digraphs at
// lengths 4, 3, 2 before single letters. Punctuation becomes silence;
// anything unrecognized is skipped without emitting an entry.
func charScan(text string) []weightedShape {
	runes := []rune(strings.ToLower(text))
	var out []weightedShape

	for i := 0; i < len(runes); {
		if matched, length := matchDigraph(runes[i:]); length > 0 {
			out = append(out, matched)
			i += length
			continue
		}

		r := runes[i]
		if ws, ok := singleLetters[r]; ok {
			out = append(out, ws)
		} else if w, ok := punctuationPause(r); ok {
			out = append(out, weightedShape{ShapeSilence, w})
		} else if unicode.IsSpace(r) {
			out = append(out, weightedShape{ShapeSilence, pauseWord})
		}
		i++
	}

	return out
}

func matchDigraph(runes []rune) (weightedShape, int) {
	for _, n := range []int{4, 3, 2} {
		if len(runes) < n {
			continue
		}
		if ws, ok := digraphTable(n)[string(runes[:n])]; ok {
			return ws, n
		}
	}
	return weightedShape{}, 0
}

func digraphTable(n int) map[string]weightedShape {
	switch n {
	case 4:
		return digraphs4
	case 3:
		return digraphs3
	default:
		return digraphs2
	}
}

// mergeShapes collapses consecutive entries with the same shape, summing
// their weights. Guarantees no two adjacent entries share a shape, which in
// turn guarantees no adjacent duplicate cues in the final timeline.
func mergeShapes(entries []weightedShape) []weightedShape {
	if len(entries) == 0 {
		return nil
	}

	merged := make([]weightedShape, 0, len(entries))
	for _, e := range entries {
		if n := len(merged); n > 0 && merged[n-1].shape == e.shape {
			merged[n-1].weight += e.weight
			continue
		}
		merged = append(merged, e)
	}
	return merged
}

// layout stretches the weighted sequence over [0, duration]. Each entry gets
// duration * weight / totalWeight; the last cue's end is pinned to duration
// exactly so accumulated floating-point error never leaves a gap at the tail.
func layout(entries []weightedShape, duration float64) []models.VisemeCue {
	var total float64
	for _, e := range entries {
		total += e.weight
	}
	if total <= 0 {
		return nil
	}

	cues := make([]models.VisemeCue, 0, len(entries))
	cursor := 0.0
	for i, e := range entries {
		end := cursor + duration*e.weight/total
		if i == len(entries)-1 {
			end = duration
		}
		cues = append(cues, models.VisemeCue{
			Start:   cursor,
			End:     end,
			Shape:   e.shape,
			Weights: WeightsFor(e.shape),
		})
		cursor = end
	}
	return cues
}
