package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/entity"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/repository"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
)

const testOrgId = "org-1"

func testRegistry() EntitySchemaRegistry {
	registry, err := NewEntitySchemaRegistry(DefaultEntitySchemas()...)
	if err != nil {
		panic(err)
	}
	return registry
}

// fakeRecordRepo keeps live rows per table, keyed by id.
type fakeRecordRepo struct {
	mu     sync.Mutex
	tables map[string]map[string]view.Record
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{tables: map[string]map[string]view.Record{}}
}

func (f *fakeRecordRepo) put(table string, record view.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tables[table] == nil {
		f.tables[table] = map[string]view.Record{}
	}
	f.tables[table][record.Id()] = copyRecord(record)
}

func (f *fakeRecordRepo) get(table string, id string) view.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tables[table][id]
}

func copyRecord(r view.Record) view.Record {
	if r == nil {
		return nil
	}
	c := make(view.Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

func (f *fakeRecordRepo) GetRecord(ctx context.Context, table string, orgId string, id string) (view.Record, error) {
	r := f.anyRecord(table, orgId, id)
	if r == nil || r[view.ColumnDeletedAt] != nil {
		return nil, nil
	}
	return r, nil
}

// anyRecord returns the row whether or not it is soft-deleted.
func (f *fakeRecordRepo) anyRecord(table string, orgId string, id string) view.Record {
	r := f.get(table, id)
	if r == nil || r[view.ColumnOrgId] != orgId {
		return nil
	}
	return copyRecord(r)
}

func (f *fakeRecordRepo) GetRecords(ctx context.Context, table string, orgId string, ids []string) ([]view.Record, error) {
	result := make([]view.Record, 0)
	for _, id := range ids {
		if r, _ := f.GetRecord(ctx, table, orgId, id); r != nil {
			result = append(result, r)
		}
	}
	return result, nil
}

func (f *fakeRecordRepo) FindByColumn(ctx context.Context, table string, orgId string, column string, value interface{}) (view.Record, error) {
	for _, r := range f.sorted(table, orgId) {
		if FormatValue(r[column]) == FormatValue(value) {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeRecordRepo) InsertRecord(ctx context.Context, table string, record view.Record) error {
	if f.get(table, record.Id()) != nil {
		return repository.ErrRecordExists
	}
	f.put(table, record)
	return nil
}

func (f *fakeRecordRepo) UpdateRecord(ctx context.Context, table string, orgId string, id string, values view.Record) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.tables[table][id]
	if r == nil || r[view.ColumnOrgId] != orgId {
		return false, nil
	}
	for k, v := range values {
		r[k] = v
	}
	return true, nil
}

func (f *fakeRecordRepo) DeleteRecord(ctx context.Context, table string, orgId string, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.tables[table][id]
	if r == nil || r[view.ColumnOrgId] != orgId {
		return false, nil
	}
	delete(f.tables[table], id)
	return true, nil
}

func (f *fakeRecordRepo) sorted(table string, orgId string) []view.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]view.Record, 0)
	for _, r := range f.tables[table] {
		if r[view.ColumnOrgId] == orgId && r[view.ColumnDeletedAt] == nil {
			result = append(result, copyRecord(r))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Id() < result[j].Id() })
	return result
}

func (f *fakeRecordRepo) CountRecords(ctx context.Context, table string, orgId string, filter view.RecordFilter) (int, error) {
	records, _ := f.ListRecords(ctx, table, orgId, filter, "", 1<<30)
	return len(records), nil
}

func (f *fakeRecordRepo) ListRecords(ctx context.Context, table string, orgId string, filter view.RecordFilter, afterId string, limit int) ([]view.Record, error) {
	result := make([]view.Record, 0)
	for _, r := range f.sorted(table, orgId) {
		if r.Id() <= afterId {
			continue
		}
		if filter.Status != "" && r[view.ColumnStatus] != filter.Status {
			continue
		}
		matches := true
		for column, value := range filter.Equals {
			if FormatValue(r[column]) != value {
				matches = false
			}
		}
		if !matches {
			continue
		}
		result = append(result, r)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (f *fakeRecordRepo) FindBySubject(ctx context.Context, table string, orgId string, columns []string, value string) ([]view.Record, error) {
	result := make([]view.Record, 0)
	for _, r := range f.sorted(table, orgId) {
		for _, column := range columns {
			if strings.EqualFold(FormatValue(r[column]), value) {
				result = append(result, r)
				break
			}
		}
	}
	return result, nil
}

func (f *fakeRecordRepo) CountBySubject(ctx context.Context, table string, orgId string, columns []string, value string) (int, error) {
	records, err := f.FindBySubject(ctx, table, orgId, columns, value)
	return len(records), err
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []entity.AuditLogEntity
}

func (f *fakeAuditRepo) StoreEntry(ctx context.Context, ent *entity.AuditLogEntity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *ent)
	return nil
}

func (f *fakeAuditRepo) GetRecentEntries(ctx context.Context, orgId string, limit int) ([]entity.AuditLogEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]entity.AuditLogEntity, 0)
	for i := len(f.entries) - 1; i >= 0 && len(result) < limit; i-- {
		if f.entries[i].OrgId == orgId {
			result = append(result, f.entries[i])
		}
	}
	return result, nil
}

func (f *fakeAuditRepo) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		result = append(result, e.Action)
	}
	return result
}

// fakeArchiveRepo moves rows between the record fake and its own snapshot list.
type fakeArchiveRepo struct {
	records  *fakeRecordRepo
	archived map[string]*entity.ArchivedRecordEntity
}

func newFakeArchiveRepo(records *fakeRecordRepo) *fakeArchiveRepo {
	return &fakeArchiveRepo{records: records, archived: map[string]*entity.ArchivedRecordEntity{}}
}

func (f *fakeArchiveRepo) ArchiveRecord(ctx context.Context, table string, orgId string, recordId string, snapshot repository.SnapshotFunc) (*entity.ArchivedRecordEntity, error) {
	record := f.records.anyRecord(table, orgId, recordId)
	ent, err := snapshot(record)
	if err != nil {
		return nil, err
	}
	f.records.DeleteRecord(ctx, table, orgId, recordId)
	f.archived[ent.Id] = ent
	return ent, nil
}

func (f *fakeArchiveRepo) RestoreRecord(ctx context.Context, orgId string, archivedId string, restore repository.RestoreFunc) (*entity.ArchivedRecordEntity, error) {
	ent := f.archived[archivedId]
	if ent != nil && ent.OrgId != orgId {
		ent = nil
	}
	table, record, err := restore(ent)
	if err != nil {
		return nil, err
	}
	if err = f.records.InsertRecord(ctx, table, record); err != nil {
		return nil, err
	}
	delete(f.archived, archivedId)
	return ent, nil
}

func (f *fakeArchiveRepo) GetArchived(ctx context.Context, orgId string, id string) (*entity.ArchivedRecordEntity, error) {
	ent := f.archived[id]
	if ent == nil || ent.OrgId != orgId {
		return nil, nil
	}
	return ent, nil
}

func (f *fakeArchiveRepo) ListArchived(ctx context.Context, orgId string, filter view.ArchivedRecordsFilter) ([]entity.ArchivedRecordEntity, int, error) {
	result := make([]entity.ArchivedRecordEntity, 0)
	for _, ent := range f.archived {
		if ent.OrgId == orgId && (filter.EntityType == "" || ent.EntityType == filter.EntityType) {
			result = append(result, *ent)
		}
	}
	return result, len(result), nil
}

func (f *fakeArchiveRepo) CountArchived(ctx context.Context, orgId string) (int, error) {
	_, total, err := f.ListArchived(ctx, orgId, view.ArchivedRecordsFilter{})
	return total, err
}

func (f *fakeArchiveRepo) DeleteArchived(ctx context.Context, orgId string, id string) (bool, error) {
	if ent, _ := f.GetArchived(ctx, orgId, id); ent == nil {
		return false, nil
	}
	delete(f.archived, id)
	return true, nil
}

func (f *fakeArchiveRepo) GetExpiredIds(ctx context.Context, expiredBefore time.Time, limit int) ([]string, error) {
	ids := make([]string, 0)
	for id, ent := range f.archived {
		if ent.RetentionUntil != nil && ent.RetentionUntil.Before(expiredBefore) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeArchiveRepo) DeleteByIds(ctx context.Context, ids []string) (int, error) {
	deleted := 0
	for _, id := range ids {
		if _, ok := f.archived[id]; ok {
			delete(f.archived, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeDuplicateRepo struct {
	records *fakeRecordRepo
	dups    map[string]*entity.DuplicateRecordEntity
}

func newFakeDuplicateRepo(records *fakeRecordRepo) *fakeDuplicateRepo {
	return &fakeDuplicateRepo{records: records, dups: map[string]*entity.DuplicateRecordEntity{}}
}

func (f *fakeDuplicateRepo) GetDuplicate(ctx context.Context, orgId string, id string) (*entity.DuplicateRecordEntity, error) {
	d := f.dups[id]
	if d == nil || d.OrgId != orgId {
		return nil, nil
	}
	c := *d
	return &c, nil
}

func (f *fakeDuplicateRepo) GetByPair(ctx context.Context, orgId string, entityType string, recordId1 string, recordId2 string) (*entity.DuplicateRecordEntity, error) {
	for _, d := range f.dups {
		if d.OrgId == orgId && d.EntityType == entityType && d.RecordId1 == recordId1 && d.RecordId2 == recordId2 {
			c := *d
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeDuplicateRepo) ListDuplicates(ctx context.Context, orgId string, filter view.DuplicatesFilter) ([]entity.DuplicateRecordEntity, int, error) {
	result := make([]entity.DuplicateRecordEntity, 0)
	for _, d := range f.dups {
		if d.OrgId != orgId || (filter.Status != "" && d.Status != string(filter.Status)) {
			continue
		}
		if filter.MinConfidence != nil && d.ConfidenceScore < *filter.MinConfidence {
			continue
		}
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Id < result[j].Id })
	return result, len(result), nil
}

func (f *fakeDuplicateRepo) CountDuplicates(ctx context.Context, orgId string, status view.DuplicateStatus) (int, error) {
	count := 0
	for _, d := range f.dups {
		if d.OrgId == orgId && d.Status == string(status) {
			count++
		}
	}
	return count, nil
}

func (f *fakeDuplicateRepo) CreateDuplicate(ctx context.Context, ent *entity.DuplicateRecordEntity) error {
	c := *ent
	f.dups[ent.Id] = &c
	return nil
}

func (f *fakeDuplicateRepo) UpdateScore(ctx context.Context, id string, confidence float64, matchFields []string) error {
	if d := f.dups[id]; d != nil {
		d.ConfidenceScore = confidence
		d.MatchFields = matchFields
	}
	return nil
}

func (f *fakeDuplicateRepo) DismissDuplicate(ctx context.Context, orgId string, id string, reason string, reviewedBy string) (bool, error) {
	d := f.dups[id]
	if d == nil || d.OrgId != orgId || d.Status != string(view.DuplicateStatusPending) {
		return false, nil
	}
	d.Status = string(view.DuplicateStatusDismissed)
	d.DismissedReason = reason
	d.ReviewedBy = reviewedBy
	return true, nil
}

func (f *fakeDuplicateRepo) MergeDuplicate(ctx context.Context, params repository.MergeParams) error {
	dup, _ := f.GetDuplicate(ctx, params.OrgId, params.DuplicateId)
	keep, _ := f.records.GetRecord(ctx, params.Table, params.OrgId, params.KeepId)
	lose, _ := f.records.GetRecord(ctx, params.Table, params.OrgId, params.LoseId)
	updates, err := params.Merge(dup, keep, lose)
	if err != nil {
		return err
	}
	f.records.UpdateRecord(ctx, params.Table, params.OrgId, params.KeepId, updates)
	for _, rel := range params.Relations {
		for _, r := range f.records.sorted(rel.Table, params.OrgId) {
			if r[rel.Column] == params.LoseId {
				f.records.UpdateRecord(ctx, rel.Table, params.OrgId, r.Id(), view.Record{rel.Column: params.KeepId})
			}
		}
	}
	f.records.DeleteRecord(ctx, params.Table, params.OrgId, params.LoseId)
	d := f.dups[params.DuplicateId]
	d.Status = string(view.DuplicateStatusMerged)
	d.MergedIntoId = params.KeepId
	d.ReviewedBy = params.ReviewedBy
	return nil
}

// fakeLockService grants every free lock name to one holder.
type fakeLockService struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLockService() *fakeLockService {
	return &fakeLockService{held: map[string]bool{}}
}

func (f *fakeLockService) TryLock(ctx context.Context, name string) (*HeldLock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[name] {
		return nil, nil
	}
	f.held[name] = true
	return &HeldLock{Name: name}, nil
}

func (f *fakeLockService) Unlock(ctx context.Context, lock *HeldLock) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held, lock.Name)
}
