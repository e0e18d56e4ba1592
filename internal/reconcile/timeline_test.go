package reconcile

import (
	"Paddock/internal/api/dto"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func msg(id string, seq uint64, at time.Time) *dto.MessageDTO {
	return &dto.MessageDTO{
		ID:             id,
		ConversationID: "conv-1",
		SenderID:       "user-1",
		SenderType:     "client",
		Content:        "m-" + id,
		Seq:            seq,
		CreatedAt:      at,
	}
}

func staticLister(msgs ...*dto.MessageDTO) Lister {
	return func(ctx context.Context) ([]*dto.MessageDTO, error) {
		return msgs, nil
	}
}

func ids(msgs []*dto.MessageDTO) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func TestTimelineSeedBuildsOrderedView(t *testing.T) {
	tl := NewTimeline(staticLister(
		msg("a", 1, base),
		msg("b", 2, base.Add(time.Second)),
	))

	require.NoError(t, tl.Seed(context.Background()))
	assert.Equal(t, []string{"a", "b"}, ids(tl.Snapshot()))
}

func TestTimelineAppliesPushedMessageInOrder(t *testing.T) {
	tl := NewTimeline(staticLister(msg("a", 1, base)))
	require.NoError(t, tl.Seed(context.Background()))

	outcome, err := tl.Apply(context.Background(), msg("b", 2, base.Add(time.Second)))
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)
	assert.Equal(t, []string{"a", "b"}, ids(tl.Snapshot()))
}

func TestTimelineDeduplicatesReplayedMessage(t *testing.T) {
	tl := NewTimeline(staticLister(msg("a", 1, base)))
	require.NoError(t, tl.Seed(context.Background()))

	pushed := msg("b", 2, base.Add(time.Second))
	outcome, err := tl.Apply(context.Background(), pushed)
	require.NoError(t, err)
	require.Equal(t, Applied, outcome)

	// 同一条消息再次投递必须被丢弃
	outcome, err = tl.Apply(context.Background(), pushed)
	require.NoError(t, err)
	assert.Equal(t, Ignored, outcome)
	assert.Equal(t, 2, tl.Len())
}

func TestTimelineDedupAgainstHistoricalSnapshot(t *testing.T) {
	// 历史拉取已经包含的消息又从推送流到达
	seeded := msg("a", 1, base)
	tl := NewTimeline(staticLister(seeded))
	require.NoError(t, tl.Seed(context.Background()))

	outcome, err := tl.Apply(context.Background(), msg("a", 1, base))
	require.NoError(t, err)
	assert.Equal(t, Ignored, outcome)
	assert.Equal(t, 1, tl.Len())
}

func TestTimelineSequenceBreaksTieWithinSameTimestamp(t *testing.T) {
	tl := NewTimeline(staticLister())
	require.NoError(t, tl.Seed(context.Background()))

	// 同一毫秒内两条消息，序号决定先后
	_, err := tl.Apply(context.Background(), msg("A", 1, base))
	require.NoError(t, err)
	_, err = tl.Apply(context.Background(), msg("B", 2, base))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, ids(tl.Snapshot()))
}

func TestTimelineOutOfOrderReplayIsReinserted(t *testing.T) {
	tl := NewTimeline(staticLister(msg("b", 2, base.Add(time.Second))))
	require.NoError(t, tl.Seed(context.Background()))

	// 老消息迟到：必须回插，不得追加到尾部
	outcome, err := tl.Apply(context.Background(), msg("a", 1, base))
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)
	assert.Equal(t, []string{"a", "b"}, ids(tl.Snapshot()))
}

func TestTimelineGapTriggersFullResync(t *testing.T) {
	full := []*dto.MessageDTO{
		msg("a", 1, base),
		msg("b", 2, base.Add(time.Second)),
		msg("c", 3, base.Add(2*time.Second)),
		msg("d", 4, base.Add(3*time.Second)),
	}
	tl := NewTimeline(staticLister(full...))

	// 断连前只看到前两条
	tl.Prime(full[:2])

	// 断连期间漏掉了 seq=3，重连后直接收到 seq=4
	outcome, err := tl.Apply(context.Background(), full[3])
	require.NoError(t, err)
	assert.Equal(t, Resynced, outcome)

	// 重拉后的视图无空洞、无重复
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(tl.Snapshot()))
}

func TestTimelineGapFromEmptyViewTriggersResync(t *testing.T) {
	full := []*dto.MessageDTO{
		msg("a", 1, base),
		msg("b", 2, base.Add(time.Second)),
	}
	tl := NewTimeline(staticLister(full...))

	// 打开时历史为空，首条推送却是 seq=2：前序消息的推送已被丢弃
	tl.Prime(nil)

	outcome, err := tl.Apply(context.Background(), full[1])
	require.NoError(t, err)
	assert.Equal(t, Resynced, outcome)
	assert.Equal(t, []string{"a", "b"}, ids(tl.Snapshot()))
}

func TestTimelineResyncFailureSurfaces(t *testing.T) {
	calls := 0
	tl := NewTimeline(func(ctx context.Context) ([]*dto.MessageDTO, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("store unreachable")
		}
		return []*dto.MessageDTO{msg("a", 1, base)}, nil
	})
	require.NoError(t, tl.Seed(context.Background()))

	outcome, err := tl.Apply(context.Background(), msg("d", 4, base.Add(time.Second)))
	assert.Equal(t, Resynced, outcome)
	assert.Error(t, err)
}

func TestTimelineExplicitResyncReplacesView(t *testing.T) {
	current := []*dto.MessageDTO{msg("a", 1, base)}
	tl := NewTimeline(func(ctx context.Context) ([]*dto.MessageDTO, error) {
		return current, nil
	})
	require.NoError(t, tl.Seed(context.Background()))

	current = []*dto.MessageDTO{
		msg("a", 1, base),
		msg("b", 2, base.Add(time.Second)),
		msg("c", 3, base.Add(2*time.Second)),
	}
	require.NoError(t, tl.Resync(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, ids(tl.Snapshot()))
}
