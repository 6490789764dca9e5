package durablestore

import "time"

// record is the single gorm-backed table every namespace shares — a
// component's durable state is just its slice of rows keyed by
// (namespace, key), mirroring the teacher's one-table-per-model
// convention but collapsed to one table since the record shape here is
// opaque JSON rather than per-component columns.
type record struct {
	Namespace string `gorm:"primaryKey"`
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (record) TableName() string {
	return "durable_records"
}
