package interval

import "strconv"

// Labels holds the localized unit words used when rendering an interval.
type Labels struct {
	SecondsLabel string `json:"seconds_label" yaml:"seconds"`
	MinutesLabel string `json:"minutes_label" yaml:"minutes"`
}

// DefaultLabels returns the English unit words.
func DefaultLabels() Labels {
	return Labels{SecondsLabel: "seconds", MinutesLabel: "minutes"}
}

// FormatSeconds renders a duration as "<n> <unit>". Values below a minute use
// the seconds label, everything else is whole minutes (integer division).
func FormatSeconds(seconds uint64, labels Labels) string {
	if seconds < 60 {
		return strconv.FormatUint(seconds, 10) + " " + labels.SecondsLabel
	}
	return strconv.FormatUint(seconds/60, 10) + " " + labels.MinutesLabel
}
