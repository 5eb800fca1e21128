package ledger

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/VTGare/Taterboard/slices"
	"github.com/diamondburned/arikawa/v3/discord"
)

// PageSize is the number of entries on a leaderboard page.
const PageSize = 10

// Metric selects which counters a leaderboard ranks.
type Metric int

const (
	Received Metric = iota
	Given
)

func (m Metric) String() string {
	return [...]string{"received", "given"}[m]
}

// Score is a leaderboard entry.
type Score struct {
	UserID discord.UserID
	Count  uint64
}

// Leaderboard is one rendered page.
type Leaderboard struct {
	Title  string
	Body   string
	Footer string

	Page       int
	TotalPages int
	Scores     []Score
}

// Scores returns the counters of a metric, highest first. Ties are ordered by user ID.
func (l *Ledger) Scores(metric Metric) []Score {
	counters := l.Received
	if metric == Given {
		counters = l.Given
	}

	scores := make([]Score, 0, len(counters))
	for id, count := range counters {
		scores = append(scores, Score{UserID: id, Count: count})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Count != scores[j].Count {
			return scores[i].Count > scores[j].Count
		}

		return scores[i].UserID < scores[j].UserID
	})

	return scores
}

// Page renders a 1-indexed leaderboard page for the requester. Out of range
// pages are clamped. The ledger isn't modified.
func (l *Ledger) Page(metric Metric, page int, requester discord.UserID) Leaderboard {
	scores := l.Scores(metric)

	total := (len(scores) + PageSize - 1) / PageSize
	if total < 1 {
		total = 1
	}

	page = max(1, min(page, total))

	start := (page - 1) * PageSize
	end := min(start+PageSize, len(scores))
	window := scores[start:end]

	var body strings.Builder
	for i, score := range window {
		rank := start + i + 1
		fmt.Fprintf(&body, "%v %v: %v has %v %vx taters\n",
			rankMarker(rank), rank, score.UserID.Mention(), metric, score.Count,
		)
	}

	place, count := "?", "?"
	if idx := slices.Index(scores, func(s Score) bool { return s.UserID == requester }); idx != -1 {
		place = strconv.Itoa(idx + 1)
		count = strconv.FormatUint(scores[idx].Count, 10)
	}

	return Leaderboard{
		Title: "Leaderboard - Taters " + metric.String(),
		Body:  body.String(),
		Footer: fmt.Sprintf("Your place: #%v/%v with %vx %v | Page %v/%v",
			place, len(scores), count, l.Config.TaterEmoji, page, total,
		),
		Page:       page,
		TotalPages: total,
		Scores:     window,
	}
}

func rankMarker(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return "🔹"
	}
}
