package classifier

import (
	"camsort/internal/messages"
)

// Dominance thresholds.
const (
	AllRatio      = 0.95
	MostlyRatio   = 0.5
	NearHalfRatio = 0.35
)

// Candidate labels per axis, in the order they are checked.
var (
	BrightnessLabels  = []string{messages.Dark, messages.Light}
	OrientationLabels = []string{messages.Portrait, messages.Landscape}
)

// DominanceLabel summarises counter as "all X", "mostly X" or "mixed X and Y"
// over the candidate labels. Ratios are taken against the counter total, which
// includes values outside labels. It returns "" when no label qualifies.
func DominanceLabel(counter messages.Counter, labels []string, r messages.Renderer) string {
	total := counter.Total()
	if total == 0 {
		return ""
	}

	var nearHalf []string
	for _, label := range labels {
		count := counter[label]
		if count == 0 {
			continue
		}
		ratio := float64(count) / float64(total)
		switch {
		case ratio > AllRatio:
			return r.Text(messages.AllOf, map[string]any{"label": r.Label(label, messages.Many)})
		case ratio > MostlyRatio:
			return r.Text(messages.MostlyOf, map[string]any{"label": r.Label(label, messages.Few)})
		case ratio > NearHalfRatio:
			nearHalf = append(nearHalf, label)
		}
	}

	switch len(nearHalf) {
	case 2:
		return r.Text(messages.MixedOf, map[string]any{
			"label1": r.Label(nearHalf[0], messages.Few),
			"label2": r.Label(nearHalf[1], messages.Few),
		})
	case 1:
		return r.Text(messages.MostlyOf, map[string]any{"label": r.Label(nearHalf[0], messages.Many)})
	}
	return ""
}
