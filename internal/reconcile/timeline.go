package reconcile

import (
	"Paddock/internal/api/dto"
	"context"
	"sync"
)

// Outcome Apply 的处理结果
type Outcome int

const (
	// Ignored 重复投递，已在视图中
	Ignored Outcome = iota
	// Applied 按总序插入视图
	Applied
	// Resynced 检测到序号空洞，已全量重拉并替换视图
	Resynced
)

// Lister 全量历史拉取函数，返回按 (created_at, seq) 升序的消息
type Lister func(ctx context.Context) ([]*dto.MessageDTO, error)

// Timeline 单会话的去重有序视图：以一次历史快照为底，
// 吸收实时推送流的乱序、重放与断流，对外始终暴露一份总序一致的消息列表。
type Timeline struct {
	mu     sync.Mutex
	list   Lister
	seen   map[string]struct{}
	view   []*dto.MessageDTO
	maxSeq uint64
}

func NewTimeline(list Lister) *Timeline {
	return &Timeline{
		list: list,
		seen: make(map[string]struct{}),
	}
}

// Seed 用全量历史初始化视图
func (t *Timeline) Seed(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reload(ctx)
}

// Prime 用已拉取的历史初始化视图，避免重复查询
func (t *Timeline) Prime(history []*dto.MessageDTO) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replace(history)
}

// Apply 合并一条推送消息。重复 id 直接丢弃；序号出现空洞时放弃增量修补，
// 全量重拉替换视图 (正确性优先)；其余情况按总序插入。
// 空视图同样参与空洞检测：首条推送的序号大于 1 说明前序消息已丢失。
func (t *Timeline) Apply(ctx context.Context, msg *dto.MessageDTO) (Outcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, dup := t.seen[msg.ID]; dup {
		return Ignored, nil
	}

	if msg.Seq > t.maxSeq+1 {
		if err := t.reload(ctx); err != nil {
			return Resynced, err
		}
		return Resynced, nil
	}

	t.insert(msg)
	return Applied, nil
}

// Resync 放弃当前视图，重新以存储层为准
func (t *Timeline) Resync(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reload(ctx)
}

// Snapshot 当前视图的拷贝
func (t *Timeline) Snapshot() []*dto.MessageDTO {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*dto.MessageDTO, len(t.view))
	copy(out, t.view)
	return out
}

func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.view)
}

func (t *Timeline) reload(ctx context.Context) error {
	history, err := t.list(ctx)
	if err != nil {
		return err
	}
	t.replace(history)
	return nil
}

func (t *Timeline) replace(history []*dto.MessageDTO) {
	t.seen = make(map[string]struct{}, len(history))
	t.view = make([]*dto.MessageDTO, 0, len(history))
	t.maxSeq = 0
	for _, m := range history {
		if _, dup := t.seen[m.ID]; dup {
			continue
		}
		t.insert(m)
	}
}

// insert 维护 (created_at, seq) 总序；推送通常是追加，重放才会走回插
func (t *Timeline) insert(msg *dto.MessageDTO) {
	i := len(t.view)
	for i > 0 && less(msg, t.view[i-1]) {
		i--
	}
	t.view = append(t.view, nil)
	copy(t.view[i+1:], t.view[i:])
	t.view[i] = msg

	t.seen[msg.ID] = struct{}{}
	if msg.Seq > t.maxSeq {
		t.maxSeq = msg.Seq
	}
}

func less(a, b *dto.MessageDTO) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Seq < b.Seq
}
