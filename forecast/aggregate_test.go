package forecast

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func session(id string, start time.Time) SessionRecord {
	return SessionRecord{ID: id, StartTime: start}
}

func counts(buckets []HourlyBucket) []int {
	out := make([]int, len(buckets))
	for i, b := range buckets {
		out[i] = b.SessionCount
	}
	return out
}

func TestAggregateGapFilling(t *testing.T) {
	sessions := []SessionRecord{
		session("a", base.Add(10*time.Minute)),
		session("b", base.Add(5*time.Hour+59*time.Minute)),
	}

	buckets, err := Aggregate(sessions)
	require.NoError(t, err)

	require.Len(t, buckets, 6)
	assert.Equal(t, []int{1, 0, 0, 0, 0, 1}, counts(buckets))
	for i, b := range buckets {
		assert.True(t, b.HourStart.Equal(base.Add(time.Duration(i)*time.Hour)), "bucket %d starts at %s", i, b.HourStart)
	}
}

func TestAggregateCountsPerHour(t *testing.T) {
	sessions := []SessionRecord{
		session("a", base),
		session("b", base.Add(30*time.Minute)),
		session("c", base.Add(59*time.Minute+59*time.Second)),
		session("d", base.Add(time.Hour)),
	}

	buckets, err := Aggregate(sessions)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, counts(buckets))
}

func TestAggregateOrderIndependence(t *testing.T) {
	var sessions []SessionRecord
	for i := 0; i < 200; i++ {
		sessions = append(sessions, session("s", base.Add(time.Duration(i*17)*time.Minute)))
	}

	want, err := Aggregate(sessions)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 5; round++ {
		shuffled := append([]SessionRecord(nil), sessions...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := Aggregate(shuffled)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	sessions := []SessionRecord{
		session("a", base.Add(2*time.Hour)),
		session("b", base),
		session("c", base.Add(2*time.Hour+5*time.Minute)),
	}

	first, err := Aggregate(sessions)
	require.NoError(t, err)
	second, err := Aggregate(sessions)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAggregateNormalizesTimeZones(t *testing.T) {
	bogota := time.FixedZone("COT", -5*60*60)
	sessions := []SessionRecord{
		session("utc", base.Add(time.Hour)),
		session("local", time.Date(2024, 2, 29, 20, 15, 0, 0, bogota)), // 01:15 UTC
	}

	buckets, err := Aggregate(sessions)
	require.NoError(t, err)

	require.Len(t, buckets, 1)
	assert.Equal(t, 2, buckets[0].SessionCount)
	assert.Equal(t, time.UTC, buckets[0].HourStart.Location())
}

func TestAggregateInsufficientData(t *testing.T) {
	tests := []struct {
		name     string
		sessions []SessionRecord
	}{
		{"nil input", nil},
		{"empty input", []SessionRecord{}},
		{"only missing start times", []SessionRecord{{ID: "x"}, {ID: "y"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate(tt.sessions)
			assert.ErrorIs(t, err, ErrInsufficientData)
		})
	}
}

func TestAggregateSkipsMissingStartTimes(t *testing.T) {
	sessions := []SessionRecord{
		{ID: "bad"},
		session("a", base),
		session("b", base.Add(2*time.Hour)),
	}

	buckets, err := Aggregate(sessions)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 1}, counts(buckets))
}
