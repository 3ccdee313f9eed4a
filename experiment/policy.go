// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package experiment

import (
	"fmt"
	"math/rand/v2"

	"github.com/danielhkuo/stimulus-rank/models"
)

// Policy selects how a first-time playlist is drawn from the catalog.
type Policy string

const (
	PolicyUniform    Policy = "uniform"
	PolicyStratified Policy = "stratified"
)

// PerStratum is how many videos the stratified policy draws from each stratum.
const PerStratum = 2

// ParsePolicy validates a configured policy name.
func ParsePolicy(name string) (Policy, error) {
	switch p := Policy(name); p {
	case PolicyUniform, PolicyStratified:
		return p, nil
	}
	return "", fmt.Errorf("unknown playlist policy %q", name)
}

// Shuffler permutes n elements through swap. rand.Shuffle is the default.
type Shuffler func(n int, swap func(i, j int))

// DefaultShuffler is a Fisher-Yates shuffle on the global generator.
var DefaultShuffler Shuffler = rand.Shuffle

// Stratum is one (nar_level, sex) bucket.
type Stratum struct {
	NarLevel string
	Sex      string
}

func (s Stratum) String() string {
	return s.NarLevel + "/" + s.Sex
}

// Strata lists the four buckets in a fixed order.
var Strata = []Stratum{
	{models.NarLevelHigh, models.SexMale},
	{models.NarLevelHigh, models.SexFemale},
	{models.NarLevelLow, models.SexMale},
	{models.NarLevelLow, models.SexFemale},
}

// Select applies policy to the candidate videos.
func Select(policy Policy, videos []models.Video, shuffle Shuffler) ([]models.Video, error) {
	switch policy {
	case PolicyUniform:
		return SelectUniform(videos, shuffle), nil
	case PolicyStratified:
		return SelectStratified(videos, shuffle)
	}
	return nil, fmt.Errorf("unknown playlist policy %q", policy)
}

// SelectUniform returns a random permutation of all videos. The input is not
// modified.
func SelectUniform(videos []models.Video, shuffle Shuffler) []models.Video {
	out := make([]models.Video, len(videos))
	copy(out, videos)
	shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// SelectStratified draws PerStratum videos from each stratum without
// replacement and permutes the combined list. Videos missing either tag
// belong to no stratum. Any stratum with fewer than PerStratum videos fails
// with ErrInsufficientStimuli.
func SelectStratified(videos []models.Video, shuffle Shuffler) ([]models.Video, error) {
	buckets := make(map[Stratum][]models.Video, len(Strata))
	for _, v := range videos {
		s := Stratum{NarLevel: v.NarLevel, Sex: v.Sex}
		buckets[s] = append(buckets[s], v)
	}

	for _, s := range Strata {
		if n := len(buckets[s]); n < PerStratum {
			return nil, fmt.Errorf("%w: stratum %s has %d videos, need %d", ErrInsufficientStimuli, s, n, PerStratum)
		}
	}

	out := make([]models.Video, 0, PerStratum*len(Strata))
	for _, s := range Strata {
		drawn := SelectUniform(buckets[s], shuffle)
		out = append(out, drawn[:PerStratum]...)
	}
	shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, nil
}
