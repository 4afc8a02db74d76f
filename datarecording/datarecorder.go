// Package datarecording stores simulation events in a SQLite database
// so that a run can be inspected after the fact.
package datarecording

import (
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"strings"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DataRecorder is a backend that can record and store data.
type DataRecorder interface {
	// CreateTable creates a table whose columns are derived from the
	// exported fields of the sample entry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers one entry for a table that already exists.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all created tables.
	ListTables() []string

	// Flush writes all buffered entries to the database.
	Flush()

	// Close flushes and closes the database.
	Close()
}

// NewDataRecorder creates a DataRecorder writing to a SQLite file at
// path (without extension). An empty path picks a unique name.
func NewDataRecorder(path string) DataRecorder {
	w := &sqliteWriter{
		dbName:    path,
		batchSize: 10000,
		tables:    make(map[string]*table),
	}

	w.init()

	atexit.Register(func() { w.Flush() })

	return w
}

type table struct {
	structType reflect.Type
	entries    []any
}

type sqliteWriter struct {
	*sql.DB

	dbName    string
	tables    map[string]*table
	batchSize int
}

func (w *sqliteWriter) init() {
	if w.dbName == "" {
		w.dbName = "minos_run_" + xid.New().String()
	}

	filename := w.dbName + ".sqlite3"

	if _, err := os.Stat(filename); err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	fmt.Fprintf(os.Stderr, "Database created for recording: %s\n", filename)

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	w.DB = db
}

func isAllowedKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16,
		reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16,
		reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	}

	return false
}

func columnsOf(t reflect.Type) []string {
	var cols []string

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		if !isAllowedKind(f.Type.Kind()) {
			panic(fmt.Sprintf(
				"field %s has unsupported kind %s", f.Name, f.Type.Kind()))
		}

		cols = append(cols, f.Name)
	}

	return cols
}

// CreateTable creates a table whose columns are the exported fields of
// the sample entry.
func (w *sqliteWriter) CreateTable(tableName string, sampleEntry any) {
	if _, ok := w.tables[tableName]; ok {
		panic(fmt.Sprintf("table %s already exists", tableName))
	}

	structType := reflect.TypeOf(sampleEntry)
	cols := columnsOf(structType)

	stmt := fmt.Sprintf(
		"CREATE TABLE %s (%s);",
		tableName, strings.Join(cols, ", "))

	if _, err := w.Exec(stmt); err != nil {
		panic(err)
	}

	w.tables[tableName] = &table{structType: structType}
}

// InsertData buffers one entry; the batch is written once it is large
// enough.
func (w *sqliteWriter) InsertData(tableName string, entry any) {
	t, ok := w.tables[tableName]
	if !ok {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != t.structType {
		panic(fmt.Sprintf(
			"table %s expects entries of type %s", tableName, t.structType))
	}

	t.entries = append(t.entries, entry)

	if len(t.entries) >= w.batchSize {
		w.flushTable(tableName, t)
	}
}

// ListTables returns the names of all created tables.
func (w *sqliteWriter) ListTables() []string {
	names := make([]string, 0, len(w.tables))
	for n := range w.tables {
		names = append(names, n)
	}

	return names
}

// Flush writes all buffered entries to the database.
func (w *sqliteWriter) Flush() {
	for name, t := range w.tables {
		w.flushTable(name, t)
	}
}

// Close flushes and closes the database.
func (w *sqliteWriter) Close() {
	w.Flush()

	if err := w.DB.Close(); err != nil {
		panic(err)
	}
}

func (w *sqliteWriter) flushTable(name string, t *table) {
	if len(t.entries) == 0 {
		return
	}

	cols := columnsOf(t.structType)
	placeholders := strings.TrimSuffix(
		strings.Repeat("?, ", len(cols)), ", ")

	stmt, err := w.Prepare(fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s);",
		name, strings.Join(cols, ", "), placeholders))
	if err != nil {
		panic(err)
	}
	defer stmt.Close()

	for _, entry := range t.entries {
		v := reflect.ValueOf(entry)

		args := make([]any, 0, len(cols))
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}

			args = append(args, normalize(v.Field(i)))
		}

		if _, err := stmt.Exec(args...); err != nil {
			panic(err)
		}
	}

	t.entries = t.entries[:0]
}

// normalize converts values SQLite cannot take directly. Full-range
// uint64 values (the syscall error sentinel among them) do not fit in
// a signed 64-bit column.
func normalize(v reflect.Value) any {
	if v.Kind() == reflect.Uint64 || v.Kind() == reflect.Uintptr {
		return int64(v.Uint())
	}

	return v.Interface()
}
