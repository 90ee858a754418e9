// Package matching implements confidence scoring for catalog match
// candidates. Scores are 0-100 estimates of how likely a candidate external
// record describes the same recording as a local song.
package matching

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Field weights. Identity fields (title, artist) dominate; secondary fields
// only refine the score.
const (
	weightTitle    = 40
	weightArtist   = 30
	weightAlbum    = 15
	weightDuration = 15

	// durationToleranceSecs is the window within which two durations are
	// treated as identical. Beyond it, similarity decays linearly to zero at
	// durationZeroSecs difference.
	durationToleranceSecs = 3
	durationZeroSecs      = 30
)

// Fields holds the identity fields compared between a local song and an
// external catalog record.
type Fields struct {
	Title        string
	Artist       string
	Album        string
	DurationSecs int
}

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9\s]+`)
	featTail = regexp.MustCompile(`\s+(feat\.?|featuring|ft\.?)\s+.*$`)
	spaces   = regexp.MustCompile(`\s+`)
)

// Normalize canonicalizes a text field for comparison: lowercase, strip
// featured-artist suffixes and punctuation, collapse whitespace.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = featTail.ReplaceAllString(s, "")
	s = nonAlnum.ReplaceAllString(s, " ")
	s = spaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Score computes the 0-100 confidence that candidate describes the same
// recording as local.
func Score(local, candidate Fields) int {
	score := float64(weightTitle)*textSimilarity(local.Title, candidate.Title) +
		float64(weightArtist)*textSimilarity(local.Artist, candidate.Artist) +
		float64(weightAlbum)*textSimilarity(local.Album, candidate.Album) +
		float64(weightDuration)*durationSimilarity(local.DurationSecs, candidate.DurationSecs)

	return int(math.Round(score))
}

// Rationale renders a human-readable explanation of a score for the review
// queue.
func Rationale(local, candidate Fields, score int) string {
	parts := []string{
		fmt.Sprintf("title %d%%", int(math.Round(100*textSimilarity(local.Title, candidate.Title)))),
		fmt.Sprintf("artist %d%%", int(math.Round(100*textSimilarity(local.Artist, candidate.Artist)))),
	}
	if local.Album != "" || candidate.Album != "" {
		parts = append(parts, fmt.Sprintf("album %d%%", int(math.Round(100*textSimilarity(local.Album, candidate.Album)))))
	}
	if local.DurationSecs > 0 && candidate.DurationSecs > 0 {
		parts = append(parts, fmt.Sprintf("duration Δ%ds", absInt(local.DurationSecs-candidate.DurationSecs)))
	}
	return fmt.Sprintf("confidence %d: %s", score, strings.Join(parts, ", "))
}

// textSimilarity returns the token-set Jaccard similarity of two normalized
// strings in [0, 1]. Two empty fields are treated as agreeing; one empty
// field against a non-empty one as disagreeing.
func textSimilarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" && nb == "" {
		return 1
	}
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	setA := tokenSet(na)
	setB := tokenSet(nb)

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

// durationSimilarity compares track lengths. Missing durations on either
// side neither help nor hurt beyond losing the weight.
func durationSimilarity(a, b int) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	diff := absInt(a - b)
	if diff <= durationToleranceSecs {
		return 1
	}
	if diff >= durationZeroSecs {
		return 0
	}
	return 1 - float64(diff-durationToleranceSecs)/float64(durationZeroSecs-durationToleranceSecs)
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
