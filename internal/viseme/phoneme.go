package viseme

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// ---------------------------------------------------------------------------
// Phoneme mode — CMU pronouncing dictionary lookup plus an ARPABET symbol →
// viseme table. Loaded once at startup and injected into the estimator; there
// is no lazily-initialized global.
// ---------------------------------------------------------------------------

// PhonemeDict is an in-memory CMU pronouncing dictionary.
type PhonemeDict struct {
	entries map[string][]string
}

// LoadCMUDict parses a cmudict-format file: one "WORD  PH1 PH2 ..." entry per
// line, ";;;" comments, "(n)" suffixes on alternate pronunciations (ignored —
// the first pronunciation wins), and stress digits on vowels (stripped).
func LoadCMUDict(path string) (*PhonemeDict, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pronouncing dictionary: %w", err)
	}
	defer f.Close()

	entries := make(map[string][]string)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";;;") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		word := fields[0]
		if idx := strings.Index(word, "("); idx > 0 {
			// Alternate pronunciation like WORD(2) — keep only the first.
			continue
		}

		phonemes := make([]string, 0, len(fields)-1)
		for _, p := range fields[1:] {
			phonemes = append(phonemes, strings.TrimRight(p, "012"))
		}

		word = strings.ToUpper(word)
		if _, exists := entries[word]; !exists {
			entries[word] = phonemes
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pronouncing dictionary: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("pronouncing dictionary %s contains no entries", path)
	}

	return &PhonemeDict{entries: entries}, nil
}

// Phonemes returns the stress-stripped ARPABET sequence for a word.
func (d *PhonemeDict) Phonemes(word string) ([]string, bool) {
	p, ok := d.entries[strings.ToUpper(word)]
	return p, ok
}

// Len returns the number of dictionary entries.
func (d *PhonemeDict) Len() int {
	return len(d.entries)
}

// arpabetShapes maps ARPABET symbols to mouth shapes. Diphthongs and
// lengthened vowels are matched as whole symbols before symbolShape falls
// back to the first character.
var arpabetShapes = map[string]string{
	// Vowels
	"AA": ShapeAA, "AE": ShapeAA, "AH": ShapeAA,
	"AO": ShapeOH, "EH": ShapeEE, "ER": ShapeEE,
	"IH": ShapeEE, "IY": ShapeEE, "UH": ShapeOO, "UW": ShapeOO,
	// Diphthongs
	"AW": ShapeOH, "AY": ShapeAA, "EY": ShapeEE, "OW": ShapeOH, "OY": ShapeOH,
	// Consonants
	"B": ShapeClosed, "M": ShapeClosed, "P": ShapeClosed,
	"F": ShapeFV, "V": ShapeFV,
	"L": ShapeL, "R": ShapeL,
	"W": ShapeOO,
	"CH": ShapeSlight, "JH": ShapeSlight, "D": ShapeSlight, "DH": ShapeSlight,
	"G": ShapeSlight, "HH": ShapeSlight, "K": ShapeSlight, "N": ShapeSlight,
	"NG": ShapeSlight, "S": ShapeSlight, "SH": ShapeSlight, "T": ShapeSlight,
	"TH": ShapeSlight, "Y": ShapeEE, "Z": ShapeSlight, "ZH": ShapeSlight,
}

// arpabetWeights assigns relative duration weights by phoneme class: vowels
// and diphthongs carry the most, stops the least.
var arpabetWeights = map[string]float64{
	// Diphthongs — longest
	"AW": 1.2, "AY": 1.2, "EY": 1.2, "OW": 1.2, "OY": 1.2,
	// Monophthong vowels
	"AA": 1.0, "AE": 1.0, "AH": 1.0, "AO": 1.0, "EH": 1.0,
	"ER": 1.0, "IH": 1.0, "IY": 1.0, "UH": 1.0, "UW": 1.0,
	// Stops — shortest
	"B": 0.3, "D": 0.3, "G": 0.3, "K": 0.3, "P": 0.3, "T": 0.3,
	// Fricatives / affricates
	"CH": 0.5, "JH": 0.5, "F": 0.5, "V": 0.5, "S": 0.5, "Z": 0.5,
	"SH": 0.5, "ZH": 0.5, "TH": 0.5, "DH": 0.5, "HH": 0.4,
	// Nasals
	"M": 0.4, "N": 0.4, "NG": 0.4,
	// Liquids / glides
	"L": 0.5, "R": 0.5, "W": 0.5, "Y": 0.5,
}

// symbolShape resolves an ARPABET symbol to (shape, weight). Whole-symbol
// match first, then first character, then skip.
func symbolShape(sym string) (weightedShape, bool) {
	if shape, ok := arpabetShapes[sym]; ok {
		return weightedShape{shape, symbolWeight(sym)}, true
	}
	if len(sym) > 1 {
		head := sym[:1]
		if shape, ok := arpabetShapes[head]; ok {
			return weightedShape{shape, symbolWeight(head)}, true
		}
	}
	return weightedShape{}, false
}

func symbolWeight(sym string) float64 {
	if w, ok := arpabetWeights[sym]; ok {
		return w
	}
	return 0.5
}

// phonemeScan tokenizes the text into words and punctuation, looks each word
// up in the dictionary, and maps its ARPABET sequence to weighted shapes.
// Out-of-dictionary words degrade to the character scanner so a single novel
// word never blanks the whole timeline.
func (e *Estimator) phonemeScan(text string) []weightedShape {
	var out []weightedShape

	for _, tok := range tokenize(text) {
		if tok.punct != 0 {
			if w, ok := punctuationPause(tok.punct); ok {
				out = append(out, weightedShape{ShapeSilence, w})
			}
			continue
		}

		phonemes, ok := e.dict.Phonemes(tok.word)
		if !ok {
			out = append(out, charScan(tok.word)...)
			out = append(out, weightedShape{ShapeSilence, pauseWord})
			continue
		}

		for _, p := range phonemes {
			if ws, ok := symbolShape(p); ok {
				out = append(out, ws)
			}
		}
		out = append(out, weightedShape{ShapeSilence, pauseWord})
	}

	return out
}

type token struct {
	word  string
	punct rune // non-zero for punctuation tokens
}

// tokenize splits text into word and punctuation tokens. Apostrophes stay
// inside words ("don't" is a single dictionary entry); everything else
// non-alphanumeric is either punctuation or discarded.
func tokenize(text string) []token {
	var tokens []token
	var word strings.Builder

	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, token{word: word.String()})
			word.Reset()
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'':
			word.WriteRune(r)
		default:
			flush()
			if _, ok := punctuationPause(r); ok {
				tokens = append(tokens, token{punct: r})
			}
		}
	}
	flush()

	return tokens
}
