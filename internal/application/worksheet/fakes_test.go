package worksheet

import (
	"context"
	"sort"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/google/uuid"

	"upllyft-worksheet-api/internal/domain/entity"
	"upllyft-worksheet-api/internal/domain/repository"
	"upllyft-worksheet-api/internal/infrastructure/messaging"
)

// newTestProducer 指向不可达地址的生产者
// 事件发布失败只会记日志，正好验证失败不阻断主流程
func newTestProducer() *messaging.Producer {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", DialTimeout: 10 * time.Millisecond})
	return messaging.NewProducer(client, 1)
}

// fakeTx 直通事务
type fakeTx struct{}

func (fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeWorksheetRepo 内存工作表仓储
type fakeWorksheetRepo struct {
	mu         sync.Mutex
	worksheets map[string]*entity.Worksheet
	candidates []*entity.Worksheet
}

func newFakeWorksheetRepo() *fakeWorksheetRepo {
	return &fakeWorksheetRepo{worksheets: make(map[string]*entity.Worksheet)}
}

func (f *fakeWorksheetRepo) put(ws *entity.Worksheet) *entity.Worksheet {
	if ws.ID == "" {
		ws.ID = uuid.NewString()
	}
	if ws.RootID == "" {
		ws.RootID = ws.ID
	}
	f.worksheets[ws.ID] = ws
	return ws
}

func (f *fakeWorksheetRepo) Create(_ context.Context, ws *entity.Worksheet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.put(ws)
	return nil
}

func (f *fakeWorksheetRepo) GetByID(_ context.Context, id string) (*entity.Worksheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.worksheets[id], nil
}

func (f *fakeWorksheetRepo) Update(_ context.Context, ws *entity.Worksheet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.worksheets[ws.ID] = ws
	return nil
}

func (f *fakeWorksheetRepo) UpdateStatus(_ context.Context, id string, from, to entity.WorksheetStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ws := f.worksheets[id]
	if ws == nil || ws.Status != from {
		return false, nil
	}
	ws.Status = to
	return true, nil
}

func (f *fakeWorksheetRepo) UpdateAssets(_ context.Context, id, pdfURL, previewURL string, status entity.WorksheetStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ws := f.worksheets[id]; ws != nil {
		ws.PDFURL, ws.PreviewURL, ws.Status = pdfURL, previewURL, status
	}
	return nil
}

func (f *fakeWorksheetRepo) SetPublic(_ context.Context, id string, isPublic bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ws := f.worksheets[id]; ws != nil {
		ws.IsPublic = isPublic
	}
	return nil
}

func (f *fakeWorksheetRepo) List(_ context.Context, _ *repository.WorksheetFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Worksheet], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []*entity.Worksheet
	for _, ws := range f.worksheets {
		items = append(items, ws)
	}
	return repository.NewPagedResult(items, int64(len(items)), pagination), nil
}

func (f *fakeWorksheetRepo) ListByRoot(_ context.Context, rootID string) ([]*entity.Worksheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Worksheet
	for _, ws := range f.worksheets {
		if ws.RootID == rootID {
			out = append(out, ws)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (f *fakeWorksheetRepo) MaxVersionInLineage(_ context.Context, rootID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for _, ws := range f.worksheets {
		if ws.RootID == rootID && ws.Version > max {
			max = ws.Version
		}
	}
	return max, nil
}

func (f *fakeWorksheetRepo) ListCandidates(_ context.Context, filter *repository.CandidateFilter) ([]*entity.Worksheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	excluded := make(map[string]bool, len(filter.ExcludeIDs))
	for _, id := range filter.ExcludeIDs {
		excluded[id] = true
	}
	var out []*entity.Worksheet
	for _, ws := range f.candidates {
		if !excluded[ws.ID] {
			out = append(out, ws)
		}
	}
	return out, nil
}

func (f *fakeWorksheetRepo) IncrementCloneCount(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ws := f.worksheets[id]; ws != nil {
		ws.CloneCount++
	}
	return nil
}

func (f *fakeWorksheetRepo) AddReviewStats(_ context.Context, id string, rating int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ws := f.worksheets[id]; ws != nil {
		ws.RatingSum += rating
		ws.ReviewCount++
	}
	return nil
}

// fakeIllustrationRepo 内存插图仓储
type fakeIllustrationRepo struct {
	mu    sync.Mutex
	items map[string]*entity.Illustration
}

func newFakeIllustrationRepo() *fakeIllustrationRepo {
	return &fakeIllustrationRepo{items: make(map[string]*entity.Illustration)}
}

func (f *fakeIllustrationRepo) CreateBatch(_ context.Context, items []*entity.Illustration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		f.items[it.ID] = it
	}
	return nil
}

func (f *fakeIllustrationRepo) GetByID(_ context.Context, id string) (*entity.Illustration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id], nil
}

func (f *fakeIllustrationRepo) Update(_ context.Context, ill *entity.Illustration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[ill.ID] = ill
	return nil
}

func (f *fakeIllustrationRepo) ListByWorksheet(_ context.Context, worksheetID string) ([]*entity.Illustration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Illustration
	for _, it := range f.items {
		if it.WorksheetID == worksheetID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeIllustrationRepo) DeleteByWorksheet(_ context.Context, worksheetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, it := range f.items {
		if it.WorksheetID == worksheetID {
			delete(f.items, id)
		}
	}
	return nil
}

// fakeFlagRepo 内存举报仓储
type fakeFlagRepo struct {
	mu    sync.Mutex
	flags map[string]*entity.WorksheetFlag
}

func newFakeFlagRepo() *fakeFlagRepo {
	return &fakeFlagRepo{flags: make(map[string]*entity.WorksheetFlag)}
}

func (f *fakeFlagRepo) Create(_ context.Context, flag *entity.WorksheetFlag) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if flag.ID == "" {
		flag.ID = uuid.NewString()
	}
	f.flags[flag.ID] = flag
	return nil
}

func (f *fakeFlagRepo) GetByID(_ context.Context, id string) (*entity.WorksheetFlag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flags[id], nil
}

func (f *fakeFlagRepo) CountPending(_ context.Context, worksheetID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, fl := range f.flags {
		if fl.WorksheetID == worksheetID && fl.Status == entity.FlagPending {
			n++
		}
	}
	return n, nil
}

func (f *fakeFlagRepo) ListPending(_ context.Context, worksheetID string) ([]*entity.WorksheetFlag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.WorksheetFlag
	for _, fl := range f.flags {
		if fl.WorksheetID == worksheetID && fl.Status == entity.FlagPending {
			out = append(out, fl)
		}
	}
	return out, nil
}

func (f *fakeFlagRepo) Resolve(_ context.Context, id string, status entity.FlagStatus, resolvedBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fl := f.flags[id]; fl != nil {
		now := time.Now()
		fl.Status = status
		fl.ResolvedBy = &resolvedBy
		fl.ResolvedAt = &now
	}
	return nil
}

func (f *fakeFlagRepo) ResolvePendingByWorksheet(_ context.Context, worksheetID string, status entity.FlagStatus, resolvedBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, fl := range f.flags {
		if fl.WorksheetID == worksheetID && fl.Status == entity.FlagPending {
			fl.Status = status
			fl.ResolvedBy = &resolvedBy
			fl.ResolvedAt = &now
		}
	}
	return nil
}

// fakeReviewRepo 内存评价仓储
type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews []*entity.WorksheetReview
}

func (f *fakeReviewRepo) Create(_ context.Context, review *entity.WorksheetReview) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	f.reviews = append(f.reviews, review)
	return nil
}

func (f *fakeReviewRepo) ListByWorksheet(_ context.Context, worksheetID string, pagination repository.Pagination) (*repository.PagedResult[*entity.WorksheetReview], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []*entity.WorksheetReview
	for _, r := range f.reviews {
		if r.WorksheetID == worksheetID {
			items = append(items, r)
		}
	}
	return repository.NewPagedResult(items, int64(len(items)), pagination), nil
}

// fakeCompletionRepo 内存完成记录仓储
type fakeCompletionRepo struct {
	mu          sync.Mutex
	completions []*entity.WorksheetCompletion
}

func (f *fakeCompletionRepo) Create(_ context.Context, completion *entity.WorksheetCompletion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if completion.ID == "" {
		completion.ID = uuid.NewString()
	}
	f.completions = append(f.completions, completion)
	return nil
}

func (f *fakeCompletionRepo) ListRecentByChild(_ context.Context, childID string, domain string, limit int) ([]*entity.WorksheetCompletion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.WorksheetCompletion
	for _, c := range f.completions {
		if c.ChildID != childID {
			continue
		}
		if domain != "" && !containsString(c.Domains, domain) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCompletionRepo) CompletedWorksheetIDs(_ context.Context, childID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, c := range f.completions {
		if c.ChildID == childID && !seen[c.WorksheetID] {
			seen[c.WorksheetID] = true
			out = append(out, c.WorksheetID)
		}
	}
	return out, nil
}

func containsString(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
