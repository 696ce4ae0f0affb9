// Package importer loads records from CSV, XLSX or Google Sheets in the background. Rows are
// committed one by one from the worker goroutine; job bookkeeping and the final announcement
// happen on the event loop.
package importer

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mamadbah2/dashpoultry/internal/statebus"
)

// Table is an import target.
type Table string

const (
	TableBatches      Table = "batches"
	TableFeedWater    Table = "feed_water"
	TableVaccinations Table = "vaccinations"
	TableMortality    Table = "mortality"
	TableWorkers      Table = "workers"
	TableExpenses     Table = "expenses"
	TableRevenue      Table = "revenue"
)

// ErrInvalidJob is returned by Job.Validate.
var ErrInvalidJob = errors.New("invalid import job")

type field struct {
	name     string
	required bool
}

var tableFields = map[Table][]field{
	TableBatches: {
		{"batch_id", true}, {"num_chicks", true}, {"breed", true}, {"date_in", true},
		{"expected_out", false}, {"mortality_rate", false},
	},
	TableFeedWater: {
		{"batch_id", true}, {"date", true}, {"feed_kg", false}, {"water_l", false},
	},
	TableVaccinations: {
		{"batch_id", true}, {"date", true}, {"vaccine", true}, {"status", false},
	},
	TableMortality: {
		{"batch_id", true}, {"date", true}, {"count", true}, {"reason", false},
	},
	TableWorkers: {
		{"worker_id", true}, {"name", true}, {"role", false}, {"phone", false}, {"email", false},
		{"address", false}, {"salary", false}, {"hire_date", false}, {"status", false},
	},
	TableExpenses: {
		{"date", true}, {"category", true}, {"amount", true}, {"description", false}, {"payment_method", false},
	},
	TableRevenue: {
		{"batch_id", true}, {"amount", true}, {"date", true},
	},
}

var tableTopics = map[Table]statebus.Topic{
	TableBatches:      statebus.TopicBatch,
	TableFeedWater:    statebus.TopicFeedWater,
	TableVaccinations: statebus.TopicVaccination,
	TableMortality:    statebus.TopicMortality,
	TableWorkers:      statebus.TopicWorker,
	TableExpenses:     statebus.TopicExpense,
	TableRevenue:      statebus.TopicRevenue,
}

// ParseTable converts a name into a Table.
func ParseTable(name string) (Table, error) {
	t := Table(strings.TrimSpace(strings.ToLower(name)))
	if _, ok := tableFields[t]; !ok {
		return "", fmt.Errorf("%w: unknown table %q", ErrInvalidJob, name)
	}
	return t, nil
}

// Topic is the bus topic announced after rows land in t.
func (t Table) Topic() statebus.Topic {
	return tableTopics[t]
}

// Fields lists the mappable fields of t, required first.
func (t Table) Fields() (required, optional []string) {
	for _, f := range tableFields[t] {
		if f.required {
			required = append(required, f.name)
		} else {
			optional = append(optional, f.name)
		}
	}
	return required, optional
}

// Job describes one import: where rows come from and how columns map onto fields. Cleanup, when
// set, runs after the worker finishes (an uploaded temp file is removed this way).
type Job struct {
	Table          Table
	Source         Source
	Mapping        map[string]string
	SkipDuplicates bool
	Cleanup        func()
}

// Validate rejects a job before any row is read.
func (j Job) Validate() error {
	fields, ok := tableFields[j.Table]
	if !ok {
		return fmt.Errorf("%w: unknown table %q", ErrInvalidJob, j.Table)
	}
	if j.Source == nil {
		return fmt.Errorf("%w: no source", ErrInvalidJob)
	}
	if len(j.Mapping) == 0 {
		return fmt.Errorf("%w: empty field mapping", ErrInvalidJob)
	}

	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.name] = true
	}

	var unknown []string
	for name, column := range j.Mapping {
		if !known[name] {
			unknown = append(unknown, name)
			continue
		}
		if strings.TrimSpace(column) == "" {
			return fmt.Errorf("%w: field %s maps to an empty column", ErrInvalidJob, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: unknown fields for %s: %s", ErrInvalidJob, j.Table, strings.Join(unknown, ", "))
	}

	for _, f := range fields {
		if f.required && j.Mapping[f.name] == "" {
			return fmt.Errorf("%w: required field %s is not mapped", ErrInvalidJob, f.name)
		}
	}
	return nil
}
