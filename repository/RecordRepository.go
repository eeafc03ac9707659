// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/db"
	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/go-pg/pg/v10"
	"github.com/go-pg/pg/v10/orm"
	"github.com/pkg/errors"
)

// RecordRepository gives generic access to the live CRM tables. Table and column names
// come from the entity schema registry which only admits plain identifiers.
type RecordRepository interface {
	GetRecord(ctx context.Context, table string, orgId string, id string) (view.Record, error)
	GetRecords(ctx context.Context, table string, orgId string, ids []string) ([]view.Record, error)
	FindByColumn(ctx context.Context, table string, orgId string, column string, value interface{}) (view.Record, error)
	InsertRecord(ctx context.Context, table string, record view.Record) error
	UpdateRecord(ctx context.Context, table string, orgId string, id string, values view.Record) (bool, error)
	DeleteRecord(ctx context.Context, table string, orgId string, id string) (bool, error)
	CountRecords(ctx context.Context, table string, orgId string, filter view.RecordFilter) (int, error)
	// ListRecords returns up to limit records with id greater than afterId, ordered by id.
	ListRecords(ctx context.Context, table string, orgId string, filter view.RecordFilter, afterId string, limit int) ([]view.Record, error)
	FindBySubject(ctx context.Context, table string, orgId string, columns []string, value string) ([]view.Record, error)
	CountBySubject(ctx context.Context, table string, orgId string, columns []string, value string) (int, error)
}

var ErrRecordExists = errors.New("record with the same id already exists")

// IsRowRejected reports errors caused by the row content (constraint or data exceptions)
// as opposed to an unavailable database.
func IsRowRejected(err error) bool {
	var pgErr pg.Error
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.IntegrityViolation() || strings.HasPrefix(pgErr.Field('C'), "22")
}

func NewRecordRepository(cp db.ConnectionProvider) RecordRepository {
	return &recordRepositoryImpl{cp: cp}
}

type recordRepositoryImpl struct {
	cp db.ConnectionProvider
}

func (r recordRepositoryImpl) GetRecord(ctx context.Context, table string, orgId string, id string) (view.Record, error) {
	return selectRecord(ctx, r.cp.GetConnection(), table, orgId, id, liveOnly, false)
}

func (r recordRepositoryImpl) GetRecords(ctx context.Context, table string, orgId string, ids []string) ([]view.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []string
	err := liveRecordQuery(ctx, r.cp.GetConnection(), table, orgId).
		Where("t.id in (?)", pg.In(ids)).
		OrderExpr("t.id").
		Select(&rows)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read records from %s", table)
	}
	return decodeRecords(rows)
}

// FindByColumn returns the first live record whose column equals value.
func (r recordRepositoryImpl) FindByColumn(ctx context.Context, table string, orgId string, column string, value interface{}) (view.Record, error) {
	var rows []string
	err := liveRecordQuery(ctx, r.cp.GetConnection(), table, orgId).
		Where("t.? = ?", pg.Ident(column), value).
		OrderExpr("t.id").
		Limit(1).
		Select(&rows)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to find record in %s by %s", table, column)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return decodeRecord(rows[0])
}

func (r recordRepositoryImpl) InsertRecord(ctx context.Context, table string, record view.Record) error {
	return insertRecord(ctx, r.cp.GetConnection(), table, record)
}

func (r recordRepositoryImpl) UpdateRecord(ctx context.Context, table string, orgId string, id string, values view.Record) (bool, error) {
	return updateRecord(ctx, r.cp.GetConnection(), table, orgId, id, values)
}

func (r recordRepositoryImpl) DeleteRecord(ctx context.Context, table string, orgId string, id string) (bool, error) {
	return deleteRecord(ctx, r.cp.GetConnection(), table, orgId, id)
}

func (r recordRepositoryImpl) CountRecords(ctx context.Context, table string, orgId string, filter view.RecordFilter) (int, error) {
	count, err := applyRecordFilter(liveRecordQuery(ctx, r.cp.GetConnection(), table, orgId), filter).Count()
	if err != nil {
		return 0, errors.Wrapf(err, "failed to count records in %s", table)
	}
	return count, nil
}

func (r recordRepositoryImpl) ListRecords(ctx context.Context, table string, orgId string, filter view.RecordFilter, afterId string, limit int) ([]view.Record, error) {
	query := liveRecordQuery(ctx, r.cp.GetConnection(), table, orgId)
	if afterId != "" {
		query = query.Where("t.id > ?", afterId)
	}
	var rows []string
	err := applyRecordFilter(query, filter).
		OrderExpr("t.id").
		Limit(limit).
		Select(&rows)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list records from %s", table)
	}
	return decodeRecords(rows)
}

func (r recordRepositoryImpl) FindBySubject(ctx context.Context, table string, orgId string, columns []string, value string) ([]view.Record, error) {
	var rows []string
	err := subjectQuery(ctx, r.cp.GetConnection(), table, orgId, columns, value).
		OrderExpr("t.id").
		Select(&rows)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to find subject records in %s", table)
	}
	return decodeRecords(rows)
}

func (r recordRepositoryImpl) CountBySubject(ctx context.Context, table string, orgId string, columns []string, value string) (int, error) {
	count, err := subjectQuery(ctx, r.cp.GetConnection(), table, orgId, columns, value).Count()
	if err != nil {
		return 0, errors.Wrapf(err, "failed to count subject records in %s", table)
	}
	return count, nil
}

type rowScope bool

const (
	liveOnly       rowScope = true
	includeDeleted rowScope = false
)

// recordQuery selects whole rows of table as json text under the alias t.
func recordQuery(ctx context.Context, conn orm.DB, table string, orgId string) *orm.Query {
	return conn.ModelContext(ctx).
		TableExpr("? AS t", pg.Ident(table)).
		ColumnExpr("row_to_json(t)::text").
		Where("t.org_id = ?", orgId)
}

func liveRecordQuery(ctx context.Context, conn orm.DB, table string, orgId string) *orm.Query {
	return recordQuery(ctx, conn, table, orgId).Where("t.deleted_at is null")
}

func applyRecordFilter(query *orm.Query, filter view.RecordFilter) *orm.Query {
	if filter.DateFrom != nil {
		query = query.Where("t.created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("t.created_at <= ?", *filter.DateTo)
	}
	if filter.Status != "" {
		query = query.Where("t.status = ?", filter.Status)
	}
	columns := make([]string, 0, len(filter.Equals))
	for column := range filter.Equals {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	for _, column := range columns {
		query = query.Where("t.?::text = ?", pg.Ident(column), filter.Equals[column])
	}
	return query
}

// subjectQuery matches rows where any of columns equals value ignoring case. Soft-deleted
// rows still hold personal data so they are included.
func subjectQuery(ctx context.Context, conn orm.DB, table string, orgId string, columns []string, value string) *orm.Query {
	return recordQuery(ctx, conn, table, orgId).WhereGroup(subjectMatch(columns, value))
}

func subjectMatch(columns []string, value string) func(*orm.Query) (*orm.Query, error) {
	return func(q *orm.Query) (*orm.Query, error) {
		for _, column := range columns {
			q = q.WhereOr("lower(t.?::text) = lower(?)", pg.Ident(column), value)
		}
		return q, nil
	}
}

func selectRecord(ctx context.Context, conn orm.DB, table string, orgId string, id string, scope rowScope, forUpdate bool) (view.Record, error) {
	query := recordQuery(ctx, conn, table, orgId)
	if scope == liveOnly {
		query = query.Where("t.deleted_at is null")
	}
	if forUpdate {
		query = query.For("UPDATE")
	}
	var rows []string
	err := query.Where("t.id = ?", id).Select(&rows)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read record %s from %s", id, table)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return decodeRecord(rows[0])
}

func recordExists(ctx context.Context, conn orm.DB, table string, id string) (bool, error) {
	var exists bool
	_, err := conn.QueryOneContext(ctx, pg.Scan(&exists), `select exists(select 1 from ? where id = ?)`, pg.Ident(table), id)
	if err != nil {
		return false, errors.Wrapf(err, "failed to check record %s in %s", id, table)
	}
	return exists, nil
}

func insertRecord(ctx context.Context, conn orm.DB, table string, record view.Record) error {
	columns := sortedColumns(record)
	if len(columns) == 0 {
		return fmt.Errorf("nothing to insert into %s", table)
	}
	names := make([]string, len(columns))
	values := make([]string, len(columns))
	args := make([]interface{}, 0, len(columns)*2+1)
	args = append(args, pg.Ident(table))
	for i, column := range columns {
		names[i] = "?"
		args = append(args, pg.Ident(column))
	}
	for i, column := range columns {
		values[i] = "?"
		args = append(args, record[column])
	}
	query := fmt.Sprintf(`insert into ? (%s) values (%s)`, strings.Join(names, ", "), strings.Join(values, ", "))
	_, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		if pgErr, ok := err.(pg.Error); ok && pgErr.IntegrityViolation() {
			return errors.Wrapf(err, "record violates constraints of %s", table)
		}
		return errors.Wrapf(err, "failed to insert record into %s", table)
	}
	return nil
}

// restoreRecord re-creates a row from its json snapshot, keeping every column including id.
func restoreRecord(ctx context.Context, conn orm.DB, table string, record view.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	query := `insert into ? select * from json_populate_record(null::?, ?)`
	_, err = conn.ExecContext(ctx, query, pg.Ident(table), pg.Ident(table), string(data))
	if err != nil {
		return errors.Wrapf(err, "failed to restore record into %s", table)
	}
	return nil
}

func updateRecord(ctx context.Context, conn orm.DB, table string, orgId string, id string, values view.Record) (bool, error) {
	columns := sortedColumns(values)
	if len(columns) == 0 {
		return false, nil
	}
	sets := make([]string, len(columns))
	args := make([]interface{}, 0, len(columns)*2+3)
	args = append(args, pg.Ident(table))
	for i, column := range columns {
		sets[i] = "? = ?"
		args = append(args, pg.Ident(column), values[column])
	}
	args = append(args, orgId, id)
	query := fmt.Sprintf(`update ? set %s where org_id = ? and id = ?`, strings.Join(sets, ", "))
	result, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		return false, errors.Wrapf(err, "failed to update record %s in %s", id, table)
	}
	return result.RowsAffected() > 0, nil
}

func deleteRecord(ctx context.Context, conn orm.DB, table string, orgId string, id string) (bool, error) {
	result, err := conn.ExecContext(ctx, `delete from ? where org_id = ? and id = ?`, pg.Ident(table), orgId, id)
	if err != nil {
		return false, errors.Wrapf(err, "failed to delete record %s from %s", id, table)
	}
	return result.RowsAffected() > 0, nil
}

func sortedColumns(record view.Record) []string {
	columns := make([]string, 0, len(record))
	for column := range record {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}

func decodeRecord(data string) (view.Record, error) {
	record := view.Record{}
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	if err := dec.Decode(&record); err != nil {
		return nil, errors.Wrap(err, "failed to decode record")
	}
	return record, nil
}

func decodeRecords(rows []string) ([]view.Record, error) {
	result := make([]view.Record, 0, len(rows))
	for _, row := range rows {
		record, err := decodeRecord(row)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, nil
}
