package binlog

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-mysql-org/go-mysql/replication"
)

// TableFilter decides which tables' row events are decoded.
type TableFilter struct {
	included map[string]bool
	excluded map[string]bool
}

// NewTableFilter builds a filter. An empty include list means every table that is not excluded.
func NewTableFilter(included []string, excluded []string) TableFilter {
	filter := TableFilter{
		included: make(map[string]bool, len(included)),
		excluded: make(map[string]bool, len(excluded)),
	}
	for _, table := range included {
		filter.included[table] = true
	}
	for _, table := range excluded {
		filter.excluded[table] = true
	}
	return filter
}

func (f TableFilter) ShouldProcess(desc TableDescriptor) bool {
	if f.excluded[desc.Table] || f.excluded[desc.QualifiedName()] {
		return false
	}

	if len(f.included) == 0 {
		return true
	}

	return f.included[desc.Table] || f.included[desc.QualifiedName()]
}

// Change is a single decoded row mutation.
type Change struct {
	Schema    string
	Table     string
	Operation Operation
	// Before is set for updates and deletes, After for creates and updates.
	Before       DecodedRecord
	After        DecodedRecord
	PartitionKey map[string]any
	Timestamp    time.Time
	// Position is where the stream resumes after the event that carried this change.
	Position LogPosition
}

type Dispatcher struct {
	registry *Registry
	filter   TableFilter
	decoder  RowDecoder
}

func NewDispatcher(registry *Registry, filter TableFilter, decoder RowDecoder) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		filter:   filter,
		decoder:  decoder,
	}
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch handles one event. Table map events update the registry, row events are decoded, everything else
// is ignored. When some rows of an event fail to decode, the rest are still returned along with the joined
// errors.
func (d *Dispatcher) Dispatch(evt *replication.BinlogEvent, pos LogPosition) ([]Change, error) {
	if evt == nil || evt.Header == nil {
		return nil, fmt.Errorf("event is missing its header")
	}

	switch {
	case evt.Header.EventType == replication.TABLE_MAP_EVENT:
		tableMap, ok := evt.Event.(*replication.TableMapEvent)
		if !ok {
			return nil, fmt.Errorf("unable to cast event to replication.TableMapEvent, got %T", evt.Event)
		}

		desc, err := NewTableDescriptor(tableMap)
		if err != nil {
			return nil, err
		}

		d.registry.Observe(desc)
		return nil, nil
	case isRowsEvent(evt.Header.EventType):
		return d.dispatchRows(evt, pos)
	default:
		return nil, nil
	}
}

func (d *Dispatcher) dispatchRows(evt *replication.BinlogEvent, pos LogPosition) ([]Change, error) {
	rowsEvent, ok := evt.Event.(*replication.RowsEvent)
	if !ok {
		return nil, fmt.Errorf("unable to cast event to replication.RowsEvent, got %T", evt.Event)
	}

	desc, ok := d.registry.Lookup(rowsEvent.TableID)
	if !ok {
		return nil, fmt.Errorf("%w: table id %d has not been described in this session", ErrUnknownTable, rowsEvent.TableID)
	}

	if !d.filter.ShouldProcess(desc) {
		return nil, nil
	}

	operation, err := convertHeaderToOperation(evt.Header.EventType)
	if err != nil {
		return nil, fmt.Errorf("failed to convert header to operation: %w", err)
	}

	beforeAndAfters, err := splitIntoBeforeAndAfter(operation, rowsEvent.Rows)
	if err != nil {
		return nil, fmt.Errorf("failed to split rows of %s: %w", desc.QualifiedName(), err)
	}

	ts := getTimeFromEvent(evt)
	var changes []Change
	var errs []error
	var idx int
	for before, after := range beforeAndAfters {
		change, err := d.buildChange(desc, operation, before, after)
		if err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", idx, err))
		} else {
			change.Timestamp = ts
			change.Position = pos
			changes = append(changes, change)
		}
		idx++
	}

	return changes, errors.Join(errs...)
}

func (d *Dispatcher) buildChange(desc TableDescriptor, operation Operation, before, after []any) (Change, error) {
	change := Change{
		Schema:    desc.Schema,
		Table:     desc.Table,
		Operation: operation,
	}

	var err error
	if before != nil {
		if change.Before, err = d.decoder.Decode(before, desc); err != nil {
			return Change{}, fmt.Errorf("failed to decode before image: %w", err)
		}
	}

	if after != nil {
		if change.After, err = d.decoder.Decode(after, desc); err != nil {
			return Change{}, fmt.Errorf("failed to decode after image: %w", err)
		}
	}

	change.PartitionKey = partitionKey(desc, change)
	return change, nil
}

// partitionKey returns the primary key values of the most recent row image.
func partitionKey(desc TableDescriptor, change Change) map[string]any {
	if len(desc.PrimaryKeys) == 0 {
		return nil
	}

	row := change.After
	if row == nil {
		row = change.Before
	}

	result := make(map[string]any, len(desc.PrimaryKeys))
	for _, ordinal := range desc.PrimaryKeys {
		if ordinal < 0 || ordinal >= len(desc.Columns) {
			continue
		}

		name := desc.Columns[ordinal].Name
		result[name] = row[name]
	}
	return result
}
