package tally

import "time"

// Bucket is the width of a time-series bucket.
type Bucket string

const (
	Hourly Bucket = "hourly"
	Daily  Bucket = "daily"
)

// Point is one bucket of a series.
type Point struct {
	Start time.Time
	Count int
}

func (b Bucket) width() time.Duration {
	if b == Hourly {
		return time.Hour
	}
	return 24 * time.Hour
}

func (b Bucket) floor(t time.Time) time.Time {
	t = t.UTC()
	if b == Hourly {
		return t.Truncate(time.Hour)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Series counts timestamps per UTC bucket. The result covers every bucket
// from the earliest to the latest observed one, with empty buckets at
// zero. A positive window limits the result to the window buckets ending
// at the latest observed bucket; the anchor is the data, not the current
// time. Nil timestamps are skipped.
func Series(times []*time.Time, bucket Bucket, window int) []Point {
	counts := map[int64]int{}
	var first, last time.Time
	for _, t := range times {
		if t == nil {
			continue
		}
		start := bucket.floor(*t)
		if len(counts) == 0 || start.Before(first) {
			first = start
		}
		if len(counts) == 0 || start.After(last) {
			last = start
		}
		counts[start.Unix()]++
	}
	if len(counts) == 0 {
		return []Point{}
	}

	if window > 0 {
		if windowStart := last.Add(-time.Duration(window-1) * bucket.width()); first.Before(windowStart) {
			first = windowStart
		}
	}

	var points []Point
	for at := first; !at.After(last); at = at.Add(bucket.width()) {
		points = append(points, Point{Start: at, Count: counts[at.Unix()]})
	}
	return points
}
