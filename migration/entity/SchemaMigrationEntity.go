package entity

import "time"

type SchemaMigrationEntity struct {
	tableName struct{} `pg:"schema_migrations"`

	Version   int       `pg:"version, pk, type:bigint"`
	Name      string    `pg:"name, type:varchar"`
	Checksum  string    `pg:"checksum, type:varchar"`
	Dirty     bool      `pg:"dirty, type:boolean, use_zero"`
	AppliedAt time.Time `pg:"applied_at, type:timestamp without time zone"`
}
