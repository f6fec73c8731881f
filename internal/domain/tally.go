package domain

// NoneLabel is the sentinel label for posts without flair.
const NoneLabel = "None"

// Flag labels used in reports.
const (
	NSFWLabel = "NSFW"
	SFWLabel  = "SFW"
)

// CategoryTally maps a label to its occurrence count.
type CategoryTally map[string]int

// Total sums every count in the tally.
func (t CategoryTally) Total() int {
	total := 0
	for _, n := range t {
		total += n
	}
	return total
}

// FlagTally counts both states of the NSFW flag.
type FlagTally struct {
	NSFW int `json:"nsfw"`
	SFW  int `json:"sfw"`
}

// Total is NSFW + SFW.
func (f FlagTally) Total() int {
	return f.NSFW + f.SFW
}

// Labels returns the flag labels in report order.
func (f FlagTally) Labels() []string {
	return []string{NSFWLabel, SFWLabel}
}

// Values returns the counts aligned with Labels.
func (f FlagTally) Values() []int {
	return []int{f.NSFW, f.SFW}
}

// AsCategory converts the pair into a CategoryTally keyed by flag label.
func (f FlagTally) AsCategory() CategoryTally {
	return CategoryTally{NSFWLabel: f.NSFW, SFWLabel: f.SFW}
}
