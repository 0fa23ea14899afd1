package classifier

import (
	"time"

	"camsort/internal/messages"
)

// Bucket is a run of records whose successive timestamps are no further apart
// than the gap threshold.
type Bucket struct {
	Start   time.Time
	Members []ClassifiedRecord
}

// End returns the timestamp of the last member.
func (b Bucket) End() time.Time {
	return b.Members[len(b.Members)-1].Timestamp
}

// Duration returns the time between the first and last member.
func (b Bucket) Duration() time.Duration {
	return b.End().Sub(b.Start)
}

// Counters tallies camera, brightness and orientation labels over the members.
func (b Bucket) Counters() (camera, brightness, orientation messages.Counter) {
	camera = messages.Counter{}
	brightness = messages.Counter{}
	orientation = messages.Counter{}
	for _, m := range b.Members {
		camera[m.Camera]++
		brightness[m.Brightness]++
		orientation[m.Orientation]++
	}
	return camera, brightness, orientation
}

// BucketByGap splits records, which must be sorted by timestamp, into buckets.
// A record opens a new bucket when it is more than maxGap after the previous
// record; the first record always opens one.
func BucketByGap(records []ClassifiedRecord, maxGap time.Duration) []Bucket {
	var buckets []Bucket
	var previous time.Time
	for i, r := range records {
		if i == 0 || r.Timestamp.Sub(previous) > maxGap {
			buckets = append(buckets, Bucket{Start: r.Timestamp})
		}
		last := &buckets[len(buckets)-1]
		last.Members = append(last.Members, r)
		previous = r.Timestamp
	}
	return buckets
}
